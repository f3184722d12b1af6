// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vision implements the pixel-side of the face mosaic stage:
// embedding comparison, short-horizon face tracking, frame partitioning for
// parallel workers, and the mosaic effect itself.
package vision

import "math"

// MatchThreshold is the cosine similarity a detected face must exceed
// (strictly) against any target embedding to be recognized as a protected
// person. Equality does not match.
const MatchThreshold = 0.3

// CosineSimilarity returns the cosine of the angle between two embeddings.
// Mismatched lengths and zero vectors report 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MatchesAnyTarget reports whether the embedding clears MatchThreshold
// against at least one target embedding.
func MatchesAnyTarget(embedding []float64, targets [][]float64) bool {
	for _, target := range targets {
		if CosineSimilarity(embedding, target) > MatchThreshold {
			return true
		}
	}
	return false
}

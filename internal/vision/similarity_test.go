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

package vision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// Mismatched lengths and zero vectors report no similarity.
	assert.Zero(t, CosineSimilarity([]float64{1, 0}, []float64{1}))
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
}

func TestMatchesAnyTarget(t *testing.T) {
	targets := [][]float64{{1, 0, 0}}

	assert.True(t, MatchesAnyTarget([]float64{1, 0.1, 0}, targets))
	assert.False(t, MatchesAnyTarget([]float64{0, 1, 0}, targets))
	assert.False(t, MatchesAnyTarget([]float64{1, 0, 0}, nil))
}

func TestMatchThresholdIsStrict(t *testing.T) {
	// An embedding at exactly the threshold similarity must not match.
	targets := [][]float64{{1, 0}}
	atThreshold := []float64{MatchThreshold, mustPerp(MatchThreshold)}
	assert.False(t, MatchesAnyTarget(atThreshold, targets))

	justAbove := []float64{MatchThreshold + 0.01, mustPerp(MatchThreshold + 0.01)}
	assert.True(t, MatchesAnyTarget(justAbove, targets))
}

// mustPerp returns the second component of a unit vector whose first
// component is c, so its cosine similarity with (1, 0) is exactly c.
func mustPerp(c float64) float64 {
	return math.Sqrt(1 - c*c)
}

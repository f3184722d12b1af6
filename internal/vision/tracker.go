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

// This file implements a short-horizon IoU tracker. Face detection only
// runs every few frames; between detections, tracks hold their last box so
// the mosaic never flickers off a moving face. Tracks confirm after a few
// consecutive detections and expire after going unseen for a while.
package vision

// Track lifecycle tuning.
const (
	// TrackConfirmHits is the number of matched detections a track needs
	// before it is acted on.
	TrackConfirmHits = 3
	// TrackMaxAge is how many frames a confirmed track survives without a
	// matching detection.
	TrackMaxAge = 50
)

// Box is a pixel-space bounding box [x1, y1, x2, y2].
type Box [4]int

// IoU returns the intersection-over-union of two boxes, 0 when they are
// disjoint or degenerate.
func IoU(a, b Box) float64 {
	xi1, yi1 := max(a[0], b[0]), max(a[1], b[1])
	xi2, yi2 := min(a[2], b[2]), min(a[3], b[3])
	inter := max(0, xi2-xi1) * max(0, yi2-yi1)
	union := (a[2]-a[0])*(a[3]-a[1]) + (b[2]-b[0])*(b[3]-b[1]) - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Detection is one detected face with its target classification.
type Detection struct {
	Box      Box
	IsTarget bool
}

// Track is one tracked face.
type Track struct {
	ID        int
	Box       Box
	IsTarget  bool
	hits      int
	misses    int
	confirmed bool
}

// Confirmed reports whether the track has accumulated enough detections to
// be acted on.
func (t *Track) Confirmed() bool { return t.confirmed }

// Tracker maintains face tracks across frames of one video segment.
type Tracker struct {
	tracks []*Track
	nextID int
}

// NewTracker returns an empty tracker. Each segment worker owns one; tracks
// never cross segment boundaries.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe feeds the detections of a detection frame into the tracker.
// Matching is greedy best-IoU: each track takes the unclaimed detection it
// overlaps most. Matched tracks adopt the detection's box and target
// classification; unmatched detections open tentative tracks; unmatched
// tracks age out after TrackMaxAge frames.
func (t *Tracker) Observe(detections []Detection) {
	claimed := make([]bool, len(detections))

	for _, track := range t.tracks {
		bestIdx := -1
		bestIoU := 0.0
		for i, det := range detections {
			if claimed[i] {
				continue
			}
			if score := IoU(track.Box, det.Box); score > bestIoU {
				bestIoU = score
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			claimed[bestIdx] = true
			track.Box = detections[bestIdx].Box
			track.IsTarget = detections[bestIdx].IsTarget
			track.hits++
			track.misses = 0
			if track.hits >= TrackConfirmHits {
				track.confirmed = true
			}
		} else {
			track.misses++
		}
	}

	for i, det := range detections {
		if claimed[i] {
			continue
		}
		t.nextID++
		t.tracks = append(t.tracks, &Track{
			ID:       t.nextID,
			Box:      det.Box,
			IsTarget: det.IsTarget,
			hits:     1,
		})
	}

	kept := t.tracks[:0]
	for _, track := range t.tracks {
		if track.misses <= TrackMaxAge {
			kept = append(kept, track)
		}
	}
	t.tracks = kept
}

// Coast ages every track by one non-detection frame. Boxes hold still;
// detection frames are the only time geometry updates.
func (t *Tracker) Coast() {
	for _, track := range t.tracks {
		track.misses++
	}
}

// Active returns the confirmed tracks to act on for the current frame.
func (t *Tracker) Active() []*Track {
	var active []*Track
	for _, track := range t.tracks {
		if track.confirmed && track.misses <= TrackMaxAge {
			active = append(active, track)
		}
	}
	return active
}

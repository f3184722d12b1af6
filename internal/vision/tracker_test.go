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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIoU(t *testing.T) {
	a := Box{0, 0, 10, 10}
	assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	assert.Zero(t, IoU(a, Box{20, 20, 30, 30}))

	// Half overlap: intersection 50, union 150.
	b := Box{5, 0, 15, 10}
	assert.InDelta(t, 50.0/150.0, IoU(a, b), 1e-9)
}

func TestTrackerConfirmsAfterThreeHits(t *testing.T) {
	tracker := NewTracker()
	det := []Detection{{Box: Box{0, 0, 10, 10}, IsTarget: false}}

	tracker.Observe(det)
	assert.Empty(t, tracker.Active(), "one hit must not confirm a track")
	tracker.Observe(det)
	assert.Empty(t, tracker.Active())
	tracker.Observe(det)

	active := tracker.Active()
	require.Len(t, active, 1)
	assert.False(t, active[0].IsTarget)
}

func TestTrackerCoastsThenExpires(t *testing.T) {
	tracker := NewTracker()
	det := []Detection{{Box: Box{0, 0, 10, 10}}}
	for i := 0; i < TrackConfirmHits; i++ {
		tracker.Observe(det)
	}
	require.Len(t, tracker.Active(), 1)

	// The track survives coasting up to the age limit.
	for i := 0; i < TrackMaxAge; i++ {
		tracker.Coast()
	}
	assert.Len(t, tracker.Active(), 1)

	// One more miss retires it.
	tracker.Coast()
	assert.Empty(t, tracker.Active())
}

func TestTrackerAdoptsMovingBox(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < TrackConfirmHits; i++ {
		// The box drifts a little each frame but keeps high IoU.
		offset := i * 2
		tracker.Observe([]Detection{{Box: Box{offset, 0, 100 + offset, 100}}})
	}
	active := tracker.Active()
	require.Len(t, active, 1)
	assert.Equal(t, Box{4, 0, 104, 100}, active[0].Box)
}

func TestTrackerTargetFlagFollowsDetections(t *testing.T) {
	tracker := NewTracker()
	box := Box{0, 0, 50, 50}
	tracker.Observe([]Detection{{Box: box, IsTarget: false}})
	tracker.Observe([]Detection{{Box: box, IsTarget: true}})
	tracker.Observe([]Detection{{Box: box, IsTarget: true}})

	active := tracker.Active()
	require.Len(t, active, 1)
	// The latest match decides; an embedding that starts matching a target
	// upgrades the whole track.
	assert.True(t, active[0].IsTarget)
}

func TestTrackerSeparateTracksForDisjointFaces(t *testing.T) {
	tracker := NewTracker()
	det := []Detection{
		{Box: Box{0, 0, 40, 40}},
		{Box: Box{100, 100, 140, 140}},
	}
	for i := 0; i < TrackConfirmHits; i++ {
		tracker.Observe(det)
	}
	assert.Len(t, tracker.Active(), 2)
}

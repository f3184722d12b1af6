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

package media

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestNormalizeBitrate(t *testing.T) {
	assert.Equal(t, "2500000", NormalizeBitrate("2500000", "3000000"))
	assert.Equal(t, "2500000", NormalizeBitrate("  2500000\n", "3000000"))
	assert.Equal(t, "3000000", NormalizeBitrate("N/A", "3000000"))
	assert.Equal(t, "3000000", NormalizeBitrate("", "3000000"))
	assert.Equal(t, "128000", NormalizeBitrate("unknown", "128000"))
}

func TestParseRational(t *testing.T) {
	v, err := ParseRational("30000/1001")
	assert.NoError(t, err)
	if v < 29.96 || v > 29.98 {
		t.Fatalf("expected NTSC frame rate, got %f", v)
	}

	v, err = ParseRational("25/1")
	assert.NoError(t, err)
	assert.Equal(t, 25.0, v)

	v, err = ParseRational(" 23.976 ")
	assert.NoError(t, err)
	assert.Equal(t, 23.976, v)
}

func TestParseRationalRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "a/b", "30/0", "N/A"} {
		if _, err := ParseRational(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1.500", formatSeconds(1.5))
	assert.Equal(t, "0.000", formatSeconds(0))
	assert.Equal(t, "12.345", formatSeconds(12.345))
}

func TestEscapeFilterPath(t *testing.T) {
	assert.Equal(t, `/tmp/file`, escapeFilterPath(`/tmp/file`))
	assert.Equal(t, `C\:\\media\\it\'s.ass`, escapeFilterPath(`C:\media\it's.ass`))
}

// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  []string
	}{
		{
			name:  "single day",
			start: "20250101",
			end:   "20250101",
			want:  []string{"20250101"},
		},
		{
			name:  "spans month boundary",
			start: "20250130",
			end:   "20250202",
			want:  []string{"20250130", "20250131", "20250201", "20250202"},
		},
		{
			name:  "spans leap day",
			start: "20240228",
			end:   "20240301",
			want:  []string{"20240228", "20240229", "20240301"},
		},
		{
			name:  "start after end is empty",
			start: "20250102",
			end:   "20250101",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := List(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListContiguous(t *testing.T) {
	list, err := List("20241215", "20250115")
	require.NoError(t, err)

	start, _ := Parse("20241215")
	end, _ := Parse("20250115")
	wantLen := int(end.Sub(start).Hours()/24) + 1
	require.Len(t, list, wantLen)

	for i := 1; i < len(list); i++ {
		prev, err := Parse(list[i-1])
		require.NoError(t, err)

		cur, err := Parse(list[i])
		require.NoError(t, err)

		assert.Equal(t, 24*time.Hour, cur.Sub(prev), "dates must be contiguous and ascending")
	}
}

func TestListInvalidFormat(t *testing.T) {
	for _, date := range []string{"2025-01-01", "250101", "20251301", "abcdefgh", ""} {
		_, err := List(date, "20250101")
		assert.Error(t, err, "start %q should be rejected", date)

		_, err = List("20250101", date)
		assert.Error(t, err, "end %q should be rejected", date)
	}
}

package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONKeysAreSnakeCase(t *testing.T) {
	now := time.Date(2026, 2, 21, 8, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		value any
		want  []string
	}{
		"user": {
			value: User{ID: 1, Username: "alice", Role: RoleEmployee, CreatedAt: now},
			want:  []string{"id", "username", "role", "created_at"},
		},
		"shift": {
			value: Shift{Title: "Morning", StartTime: now, EndTime: now.Add(4 * time.Hour), CreatedAt: now},
			want:  []string{"start_time", "end_time", "created_at"},
		},
		"review mail": {
			value: ReviewMailData{Username: "alice", ShiftTitle: "Morning", StartTime: now, EndTime: now},
			want:  []string{"shift_title", "start_time", "end_time"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(tc.value)
			require.NoError(t, err)

			var keys map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &keys))
			for _, k := range tc.want {
				assert.Contains(t, keys, k)
			}
			for k := range keys {
				assert.NotRegexp(t, `[A-Z]`, k)
			}
		})
	}
}

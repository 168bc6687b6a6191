// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-sshkeys.
//
// go-sshkeys is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package sshkey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeValue(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  uint64
	}{
		{name: "now", value: "now", want: uint64(now.Unix())},
		{name: "unix timestamp", value: "1700000000", want: 1700000000},
		{name: "float timestamp", value: "1700000000.5", want: 1700000000},
		{
			name:  "date",
			value: "20260101",
			want:  uint64(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()),
		},
		{
			name:  "datetime",
			value: "20260101123045",
			want:  uint64(time.Date(2026, 1, 1, 12, 30, 45, 0, time.UTC).Unix()),
		},
		{name: "relative weeks", value: "+52w", want: uint64(now.Add(52 * 7 * 24 * time.Hour).Unix())},
		{name: "relative mixed", value: "+1d12h", want: uint64(now.Add(36 * time.Hour).Unix())},
		{name: "relative negative", value: "-1h", want: uint64(now.Add(-time.Hour).Unix())},
		{name: "relative unsigned", value: "90s", want: uint64(now.Add(90 * time.Second).Unix())},
		{
			name:  "relative all units",
			value: "+1w2d3h4m5s",
			want: uint64(now.Add(7*24*time.Hour + 2*24*time.Hour +
				3*time.Hour + 4*time.Minute + 5*time.Second).Unix()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeValue(tt.value, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeValueInvalid(t *testing.T) {
	now := time.Now()
	for _, value := range []string{"", "yesterday", "+", "1x", "2026-01-01", "-1.5h"} {
		_, err := ParseTimeValue(value, now)
		assert.ErrorIs(t, err, ErrKeyImport, value)
	}
}

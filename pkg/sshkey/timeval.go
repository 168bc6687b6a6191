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
	"regexp"
	"strconv"
	"time"
)

var relativeTimeRE = regexp.MustCompile(`^([+-]?)((\d+)[wW])?((\d+)[dD])?((\d+)[hH])?((\d+)[mM])?((\d+)[sS])?$`)

// ParseTimeValue parses a certificate validity bound. Accepted forms: an
// integer or float Unix timestamp, the literal "now", an 8-digit YYYYMMDD
// date, a 14-digit YYYYMMDDHHMMSS timestamp, or a relative interval such as
// "+52w" or "-1d12h" applied to the current time. Anything else is a hard
// error.
func ParseTimeValue(value string, now time.Time) (uint64, error) {
	if value == "now" {
		return uint64(now.Unix()), nil
	}
	if t, err := time.Parse("20060102", value); err == nil && len(value) == 8 {
		return uint64(t.Unix()), nil
	}
	if t, err := time.Parse("20060102150405", value); err == nil && len(value) == 14 {
		return uint64(t.Unix()), nil
	}
	if n, err := strconv.ParseUint(value, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
		return uint64(f), nil
	}
	if d, ok := parseRelativeInterval(value); ok {
		return uint64(now.Add(d).Unix()), nil
	}
	return 0, importError("invalid time value %q", value)
}

// parseRelativeInterval parses ssh-keygen style interval strings composed
// of week/day/hour/minute/second terms, with an optional leading sign.
func parseRelativeInterval(value string) (time.Duration, bool) {
	m := relativeTimeRE.FindStringSubmatch(value)
	if m == nil || (m[2] == "" && m[4] == "" && m[6] == "" && m[8] == "" && m[10] == "") {
		return 0, false
	}
	units := []struct {
		group int
		unit  time.Duration
	}{
		{3, 7 * 24 * time.Hour},
		{5, 24 * time.Hour},
		{7, time.Hour},
		{9, time.Minute},
		{11, time.Second},
	}
	var d time.Duration
	for _, u := range units {
		if m[u.group] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[u.group], 10, 64)
		if err != nil {
			return 0, false
		}
		d += time.Duration(n) * u.unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, true
}

// Package chatid normalizes the identifier forms Telegram uses for the same
// chat into a single canonical value. A chat can surface either as a bare
// internal id or as a "broadcast" id carrying the -100 prefix; registry and
// cursor lookups key on the canonical form only.
package chatid

import (
	"fmt"
	"strconv"
	"strings"
)

// broadcastPrefix is the fixed digit prefix carried by marked channel and
// supergroup identifiers.
const broadcastPrefix = "100"

// Normalize maps any raw chat identifier to its canonical form. Negative
// identifiers carrying the broadcast prefix have the prefix stripped;
// everything else normalizes to its absolute value.
//
// Two raw identifiers that differ only in sign and carry no prefix collapse
// to the same canonical value. That collision is inherited from the upstream
// identifier scheme and kept for compatibility with existing indexes.
func Normalize(raw int64) uint64 {
	if raw >= 0 {
		return uint64(raw)
	}

	abs := uint64(-raw)
	s := strconv.FormatUint(abs, 10)
	if strings.HasPrefix(s, broadcastPrefix) && len(s) > len(broadcastPrefix) {
		if bare, err := strconv.ParseUint(s[len(broadcastPrefix):], 10, 64); err == nil {
			return bare
		}
	}

	return abs
}

// Parse converts a textual raw chat identifier to its numeric form.
// Malformed input is a caller-level validation error, never a silent default.
func Parse(s string) (int64, error) {
	raw, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q; %w", s, err)
	}
	return raw, nil
}

package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PositionCodes is the fixed set of roster position codes a match may
// advertise. Order here is the display order used when encoding the ledger.
var PositionCodes = []string{"GK", "DF", "MF", "FW"}

var positionRank = func() map[string]int {
	m := make(map[string]int, len(PositionCodes))
	for i, c := range PositionCodes {
		m[c] = i
	}
	return m
}()

// ValidPosition reports whether code is one of the known position codes.
func ValidPosition(code string) bool {
	_, ok := positionRank[code]
	return ok
}

// ParseMissingGroups decodes a "GK:1,DF:2" token list into counts by
// position. An empty string is a valid, fully-staffed ledger. Positions
// absent from the encoding have count zero and are omitted from the result.
func ParseMissingGroups(encoded string) (map[string]int, error) {
	counts := make(map[string]int)
	if strings.TrimSpace(encoded) == "" {
		return counts, nil
	}
	for _, token := range strings.Split(encoded, ",") {
		token = strings.TrimSpace(token)
		code, value, found := strings.Cut(token, ":")
		if !found {
			return nil, fmt.Errorf("malformed missing-group token %q", token)
		}
		if !ValidPosition(code) {
			return nil, fmt.Errorf("unknown position code %q", code)
		}
		count, err := strconv.Atoi(value)
		if err != nil || count < 1 {
			return nil, fmt.Errorf("invalid count in token %q", token)
		}
		if _, dup := counts[code]; dup {
			return nil, fmt.Errorf("duplicate position code %q", code)
		}
		counts[code] = count
	}
	return counts, nil
}

// FormatMissingGroups encodes counts as the comma-ordered token list.
// Zero and negative counts are dropped so the encoding keeps its
// one-token-per-missing-position shape.
func FormatMissingGroups(counts map[string]int) string {
	codes := make([]string, 0, len(counts))
	for code, count := range counts {
		if count > 0 {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		return positionRank[codes[i]] < positionRank[codes[j]]
	})
	tokens := make([]string, len(codes))
	for i, code := range codes {
		tokens[i] = code + ":" + strconv.Itoa(counts[code])
	}
	return strings.Join(tokens, ",")
}

package services

import (
	"strings"
	"unicode"
)

const (
	// existenceChunkSize bounds the ICCID list sent in one existence query.
	existenceChunkSize = 100
	// insertChunkSize bounds the rows sent in one batch insert.
	insertChunkSize = 1000
)

// ParseICCIDs splits raw operator input on commas, newlines and any other
// whitespace, trims and uppercases each token and drops empties. Order and
// repeated tokens are preserved.
func ParseICCIDs(raw ...string) []string {
	iccids := []string{}
	for _, input := range raw {
		fields := strings.FieldsFunc(input, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		for _, f := range fields {
			f = strings.ToUpper(strings.TrimSpace(f))
			if f != "" {
				iccids = append(iccids, f)
			}
		}
	}
	return iccids
}

// dedupe keeps the first occurrence of each ICCID and returns the repeats.
func dedupe(iccids []string) (unique, repeated []string) {
	seen := make(map[string]struct{}, len(iccids))
	for _, iccid := range iccids {
		if _, ok := seen[iccid]; ok {
			repeated = append(repeated, iccid)
			continue
		}
		seen[iccid] = struct{}{}
		unique = append(unique, iccid)
	}
	return unique, repeated
}

func chunk[T any](items []T, size int) [][]T {
	var chunks [][]T
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size:size])
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}

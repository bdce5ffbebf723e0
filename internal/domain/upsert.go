package domain

import "slices"

// UpsertRow applies row to rows and returns the result. When a row with an
// identical feature vector exists its class is replaced; otherwise row is
// appended. The input slice is left untouched.
func UpsertRow(rows []Row, row Row) []Row {
	idx := slices.IndexFunc(rows, func(r Row) bool {
		return slices.Equal(r.Features, row.Features)
	})

	out := make([]Row, len(rows), len(rows)+1)
	copy(out, rows)

	if idx < 0 {
		return append(out, Row{Features: slices.Clone(row.Features), Class: row.Class})
	}
	// The vector already matches, so only the class changes.
	out[idx] = Row{Features: out[idx].Features, Class: row.Class}
	return out
}

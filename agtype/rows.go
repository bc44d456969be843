package agtype

import "fmt"

// ResultKey is the record key for single-column results.
const ResultKey = "result"

// Record is one parsed result row. Single-column results are keyed by
// ResultKey, wider results positionally by Key(i).
type Record map[string]Value

// Result returns the value of a single-column record.
func (r Record) Result() Value {
	return r[ResultKey]
}

// ParseRows decodes every cell of rows. columns is the width declared in the
// AS (...) clause; rows narrower than that fail.
func ParseRows[R ~[]any](rows []R, columns int) ([]Record, error) {
	if columns < 1 {
		columns = 1
	}
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		if len(row) < columns {
			return nil, fmt.Errorf("row %d: got %d columns, want %d", i, len(row), columns)
		}
		rec := make(Record, columns)
		if columns == 1 {
			v, err := Decode(row[0])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			rec[ResultKey] = v
		} else {
			for c := 0; c < columns; c++ {
				v, err := Decode(row[c])
				if err != nil {
					return nil, fmt.Errorf("row %d column %d: %w", i, c, err)
				}
				rec[Key(c)] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// RemapColumns renames positional keys to names, in order. Scalars are
// unwrapped to their bare values; graph records, objects and raw values are
// kept as they are. With no names the records are returned as plain maps
// under their original keys.
func RemapColumns(records []Record, names []string) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		m := make(map[string]any, len(rec))
		if len(names) == 0 {
			for k, v := range rec {
				m[k] = v
			}
			out = append(out, m)
			continue
		}

		renamed := make(map[string]bool, len(names))
		if v, ok := rec[ResultKey]; ok && len(names) >= 1 {
			m[names[0]] = unwrap(v)
			renamed[ResultKey] = true
		} else {
			for i, name := range names {
				if v, ok := rec[Key(i)]; ok {
					m[name] = unwrap(v)
					renamed[Key(i)] = true
				}
			}
		}
		for k, v := range rec {
			if !renamed[k] {
				m[k] = v
			}
		}
		out = append(out, m)
	}
	return out
}

func unwrap(v Value) any {
	if s, ok := v.(Scalar); ok {
		return s.Value
	}
	return v
}

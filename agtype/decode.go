package agtype

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Value is a decoded result cell. It is one of *GraphRecord, Scalar, Object,
// Raw, or Columns.
type Value interface {
	agtypeValue()
}

// GraphRecord is a vertex or edge as returned by AGE.
type GraphRecord struct {
	ID         int64
	Label      string
	Edge       bool
	StartID    int64
	EndID      int64
	Properties map[string]any
}

// Scalar wraps a plain JSON value: nil, bool, int64, float64, string, or a
// list. Lists may hold *GraphRecord elements (paths, variable-length edges).
type Scalar struct {
	Value any
}

// Object is a decoded map that is not a graph record.
type Object map[string]any

// Raw is text that is neither JSON nor a number.
type Raw struct {
	Text string
}

// Columns is a multi-column row keyed positionally as col_0, col_1, ...
type Columns map[string]Value

func (*GraphRecord) agtypeValue() {}
func (Scalar) agtypeValue()       {}
func (Object) agtypeValue()       {}
func (Raw) agtypeValue()          {}
func (Columns) agtypeValue()      {}

// Map returns the generic form of the record. The identity is keyed as
// graph_id rather than AGE's id.
func (r *GraphRecord) Map() map[string]any {
	out := map[string]any{
		"graph_id":   r.ID,
		"label":      r.Label,
		"properties": r.Properties,
	}
	if r.Edge {
		out["start_id"] = r.StartID
		out["end_id"] = r.EndID
	}
	return out
}

// Map flattens the row into plain values.
func (c Columns) Map() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = Plain(v)
	}
	return out
}

// Key returns the positional key of column i.
func Key(i int) string {
	return "col_" + strconv.Itoa(i)
}

// Plain returns the bare Go value carried by v.
func Plain(v Value) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *GraphRecord:
		return x.Map()
	case Scalar:
		return x.Value
	case Object:
		return map[string]any(x)
	case Raw:
		return x.Text
	case Columns:
		return x.Map()
	default:
		return v
	}
}

// DecodeError reports wire text that looks like JSON but does not parse.
type DecodeError struct {
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("agtype: decoding %q: %v", e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err carries a *DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// Decode normalizes one result cell. Text cells have their ::tag annotations
// removed and are parsed as JSON, then integer, then float, falling back to
// Raw. Values that are already decoded are returned unchanged.
func Decode(cell any) (Value, error) {
	switch x := cell.(type) {
	case nil:
		return Scalar{}, nil
	case Value:
		return x, nil
	case string:
		return DecodeText(x)
	case []byte:
		return DecodeText(string(x))
	case map[string]any:
		return fromJSON(normalizeNumbers(x)), nil
	case []any:
		return fromJSON(normalizeNumbers(x)), nil
	case bool, float64:
		return Scalar{Value: x}, nil
	case float32:
		return Scalar{Value: float64(x)}, nil
	case int:
		return Scalar{Value: int64(x)}, nil
	case int8:
		return Scalar{Value: int64(x)}, nil
	case int16:
		return Scalar{Value: int64(x)}, nil
	case int32:
		return Scalar{Value: int64(x)}, nil
	case int64:
		return Scalar{Value: x}, nil
	case json.Number:
		return Scalar{Value: numberValue(x)}, nil
	default:
		return Raw{Text: fmt.Sprint(cell)}, nil
	}
}

// DecodeText parses one agtype text cell.
func DecodeText(text string) (Value, error) {
	s := StripAnnotations(text)
	if looksLikeJSON(s) {
		v, err := parseJSON(s)
		if err != nil {
			return nil, &DecodeError{Text: text, Err: err}
		}
		return fromJSON(v), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Scalar{Value: n}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Scalar{Value: f}, nil
	}
	return Raw{Text: s}, nil
}

// StripAnnotations removes agtype type tags (::vertex, ::edge, ::path,
// ::numeric, ...) that appear outside string literals. AGE prints one after
// every composite value and after the whole cell.
func StripAnnotations(text string) string {
	if !strings.Contains(text, "::") {
		return strings.TrimSpace(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ':' && i+1 < len(text) && text[i+1] == ':' {
			j := i + 2
			for j < len(text) && isTagByte(text[j]) {
				j++
			}
			if j > i+2 {
				i = j - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}

func isTagByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func looksLikeJSON(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '{', '[', '"':
		return true
	}
	return s == "null" || s == "true" || s == "false"
}

func parseJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data")
	}
	return normalizeNumbers(v), nil
}

// fromJSON turns a parsed JSON value into a Value, promoting graph records at
// the top level and inside lists.
func fromJSON(v any) Value {
	switch x := v.(type) {
	case map[string]any:
		if rec, ok := graphRecord(x); ok {
			return rec
		}
		return Object(x)
	case []any:
		return Scalar{Value: promoteList(x)}
	default:
		return Scalar{Value: x}
	}
}

func promoteList(items []any) []any {
	for i, item := range items {
		switch x := item.(type) {
		case map[string]any:
			if rec, ok := graphRecord(x); ok {
				items[i] = rec
			}
		case []any:
			items[i] = promoteList(x)
		}
	}
	return items
}

// graphRecord accepts both the wire form (id) and the generic form
// (graph_id) so that decoding twice is harmless.
func graphRecord(m map[string]any) (*GraphRecord, bool) {
	props, hasProps := m["properties"]
	if !hasProps {
		return nil, false
	}
	rawID, hasID := m["id"]
	if !hasID {
		rawID, hasID = m["graph_id"]
	}
	if !hasID {
		return nil, false
	}
	id, ok := toInt64(rawID)
	if !ok {
		return nil, false
	}

	rec := &GraphRecord{ID: id}
	rec.Label, _ = m["label"].(string)
	if pm, ok := props.(map[string]any); ok {
		rec.Properties = pm
	} else {
		rec.Properties = map[string]any{}
	}
	start, hasStart := m["start_id"]
	end, hasEnd := m["end_id"]
	if hasStart && hasEnd {
		rec.Edge = true
		rec.StartID, _ = toInt64(start)
		rec.EndID, _ = toInt64(end)
	}
	return rec, true
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return numberValue(x)
	case map[string]any:
		for k, item := range x {
			x[k] = normalizeNumbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = normalizeNumbers(item)
		}
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), x == float64(int64(x))
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

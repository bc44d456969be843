// Package agtype converts Go values to and from the textual forms used by
// Apache AGE: agtype literals, inline Cypher literals, and the SQL string
// literals that carry them.
package agtype

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Property is one entry of an ordered property map.
type Property struct {
	Key   string
	Value any
}

// Properties is a property map that keeps insertion order on the wire.
type Properties []Property

func (p Properties) Get(key string) (any, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, prop := range p {
		keys = append(keys, prop.Key)
	}
	return keys
}

func (p Properties) Map() map[string]any {
	out := make(map[string]any, len(p))
	for _, prop := range p {
		out[prop.Key] = prop.Value
	}
	return out
}

// EscapeString escapes s for the body of a double-quoted agtype string.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeSQLLiteral doubles single quotes so s can sit inside a SQL '...' literal.
func EscapeSQLLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// EncodeAgtype renders v as agtype text. Map keys are double-quoted.
func EncodeAgtype(v any) string {
	var b strings.Builder
	writeAgtype(&b, v)
	return b.String()
}

// EncodeProperties renders p as an agtype object, keeping key order.
func EncodeProperties(p Properties) string {
	var b strings.Builder
	writeAgtypeObject(&b, p)
	return b.String()
}

// EncodeLiteral renders v as a Cypher literal for inlining into query text.
// Map keys are bare identifiers and strings are single-quoted. The result is
// not safe inside a SQL string literal; use EscapeSQLLiteral on agtype text
// for that.
func EncodeLiteral(v any) string {
	var b strings.Builder
	writeLiteral(&b, v)
	return b.String()
}

// EncodeLiteralProperties renders p as an inline Cypher map, keeping key order.
func EncodeLiteralProperties(p Properties) string {
	var b strings.Builder
	writeLiteralMap(&b, p)
	return b.String()
}

var placeholderPattern = regexp.MustCompile(`\$[A-Za-z0-9_]+`)

// Substitute replaces $name placeholders in cypher with literal values from
// params. A placeholder always spans the full identifier, so $age never
// matches inside $age_max. Unknown placeholders are left as written, and
// substituted text is not scanned again.
func Substitute(cypher string, params map[string]any) string {
	if len(params) == 0 {
		return cypher
	}
	return placeholderPattern.ReplaceAllStringFunc(cypher, func(match string) string {
		if v, ok := params[match[1:]]; ok {
			return EncodeLiteral(v)
		}
		return match
	})
}

func writeAgtype(b *strings.Builder, v any) {
	if text, ok := scalarText(v); ok {
		b.WriteString(text)
		return
	}
	if s, ok := stringValue(v); ok {
		b.WriteByte('"')
		b.WriteString(EscapeString(s))
		b.WriteByte('"')
		return
	}
	if props, ok := mapEntries(v); ok {
		writeAgtypeObject(b, props)
		return
	}
	if items, ok := listItems(v); ok {
		b.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeAgtype(b, item)
		}
		b.WriteByte(']')
		return
	}
	if inner, ok := deref(v); ok {
		writeAgtype(b, inner)
		return
	}
	b.WriteByte('"')
	b.WriteString(EscapeString(fmt.Sprint(v)))
	b.WriteByte('"')
}

func writeAgtypeObject(b *strings.Builder, props Properties) {
	b.WriteByte('{')
	for i, prop := range props {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(EscapeString(prop.Key))
		b.WriteString(`": `)
		writeAgtype(b, prop.Value)
	}
	b.WriteByte('}')
}

func writeLiteral(b *strings.Builder, v any) {
	if text, ok := scalarText(v); ok {
		b.WriteString(text)
		return
	}
	if s, ok := stringValue(v); ok {
		writeQuotedLiteral(b, s)
		return
	}
	if props, ok := mapEntries(v); ok {
		writeLiteralMap(b, props)
		return
	}
	if items, ok := listItems(v); ok {
		b.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, item)
		}
		b.WriteByte(']')
		return
	}
	if inner, ok := deref(v); ok {
		writeLiteral(b, inner)
		return
	}
	writeQuotedLiteral(b, fmt.Sprint(v))
}

// writeLiteralMap drops keys that fail ValidKey.
func writeLiteralMap(b *strings.Builder, props Properties) {
	b.WriteByte('{')
	n := 0
	for _, prop := range props {
		if !ValidKey(prop.Key) {
			continue
		}
		if n > 0 {
			b.WriteString(", ")
		}
		n++
		b.WriteString(LiteralKey(prop.Key))
		b.WriteString(": ")
		writeLiteral(b, prop.Value)
	}
	b.WriteByte('}')
}

var bareKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidKey reports whether key can appear as a Cypher map key or property
// name. A key holding '$' could close the surrounding $$ quote.
func ValidKey(key string) bool {
	return key != "" && !strings.Contains(key, "$")
}

// LiteralKey backtick-quotes keys that are not plain identifiers. Callers
// check ValidKey first.
func LiteralKey(key string) string {
	if bareKeyPattern.MatchString(key) {
		return key
	}
	return "`" + strings.ReplaceAll(key, "`", "``") + "`"
}

// writeQuotedLiteral escapes '$' as well so a value can never close the
// surrounding $$ quote or look like a placeholder.
func writeQuotedLiteral(b *strings.Builder, s string) {
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			b.WriteString(`\u0024`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
}

// scalarText renders the values that are spelled the same in agtype and Cypher.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "null", true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	case int:
		return strconv.FormatInt(int64(x), 10), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return formatFloat(float64(x), 32), true
	case float64:
		return formatFloat(x, 64), true
	case json.Number:
		return x.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return scalarText(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return formatFloat(rv.Float(), 32), true
	case reflect.Float64:
		return formatFloat(rv.Float(), 64), true
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return "null", true
		}
	}
	return "", false
}

// formatFloat keeps a decimal point on integral values so they decode as floats.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func stringValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case time.Time:
		return x.Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return x.String(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func mapEntries(v any) (Properties, bool) {
	switch x := v.(type) {
	case Properties:
		return x, true
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		props := make(Properties, 0, len(keys))
		for _, k := range keys {
			props = append(props, Property{Key: k, Value: x[k]})
		}
		return props, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	values := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		values[k] = iter.Value().Interface()
	}
	sort.Strings(keys)
	props := make(Properties, 0, len(keys))
	for _, k := range keys {
		props = append(props, Property{Key: k, Value: values[k]})
	}
	return props, true
}

func listItems(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func deref(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	return rv.Elem().Interface(), true
}

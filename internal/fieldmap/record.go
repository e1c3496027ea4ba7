// Package fieldmap translates raw backend rows into the canonical entities of package models and back.
//
// Backends disagree on nearly everything: camelCase or snake_case, "title" or "name", collections as arrays or as
// objects keyed by id, timestamps as epoch milliseconds or ISO-8601 strings. The accessors here try every known
// alias and never fail. A malformed or missing value becomes the zero value of the canonical field.
package fieldmap

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/casemate/internal/errors"
)

// Record is one raw row as produced by a backend.
type Record map[string]any

// DecodeRows decodes a JSON collection payload.
//
// An object keyed by id yields one row per member in document order, with the key stored under "id" unless the
// member carries an id of its own. An array yields its object elements. Any other JSON value yields no rows.
// Only syntactically invalid JSON is an error.
func DecodeRows(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "read first token")
	}
	rows := []Record{}
	delim, ok := tok.(json.Delim)
	if !ok {
		return rows, nil
	}

	switch delim {
	case '{':
		for dec.More() {
			var keyTok json.Token
			if keyTok, err = dec.Token(); err != nil {
				return nil, errors.Wrap(err, "read object key")
			}
			key, _ := keyTok.(string)
			var value any
			if err = dec.Decode(&value); err != nil {
				return nil, errors.Wrap(err, "decode object member")
			}
			row, isObject := value.(map[string]any)
			if !isObject {
				continue
			}
			rec := Record(row)
			if rec.String("id") == "" {
				rec["id"] = key
			}
			rows = append(rows, rec)
		}
	case '[':
		for dec.More() {
			var value any
			if err = dec.Decode(&value); err != nil {
				return nil, errors.Wrap(err, "decode array element")
			}
			if row, isObject := value.(map[string]any); isObject {
				rows = append(rows, Record(row))
			}
		}
	default:
		return rows, nil
	}
	if _, err = dec.Token(); err != nil {
		return nil, errors.Wrap(err, "read closing delimiter")
	}
	return rows, nil
}

// DecodeRecord decodes a single JSON object. Valid JSON that is not an object yields an empty record.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	if row, ok := value.(map[string]any); ok {
		return Record(row), nil
	}
	return Record{}, nil
}

// lookup returns the value of the first alias that is present and not null.
func (r Record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String reads the first present alias as text. Numbers and booleans are formatted; anything else is "".
func (r Record) String(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// Strings reads the first present alias as a list of ids. It accepts arrays, JSON-encoded arrays stored as text,
// and a lone scalar. The result is never nil.
func (r Record) Strings(keys ...string) []string {
	v, ok := r.lookup(keys...)
	if !ok {
		return []string{}
	}
	return toStrings(v)
}

func toStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	case string, []byte:
		s := strings.TrimSpace(toString(t))
		if strings.HasPrefix(s, "[") {
			var items []any
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return out
			}
			return toStrings(items)
		}
		if s != "" {
			out = append(out, s)
		}
	default:
		if s := toString(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Bool reads the first present alias as a flag. Non-zero numbers and strconv.ParseBool truthy strings are true.
func (r Record) Bool(keys ...string) bool {
	v, ok := r.lookup(keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int64:
		return t != 0
	case int:
		return t != 0
	case string, []byte:
		b, err := strconv.ParseBool(strings.TrimSpace(toString(t)))
		return err == nil && b
	default:
		return false
	}
}

var timeLayouts = []string{ //nolint:gochecknoglobals // read-only table
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time reads the first present alias as an instant. Numbers are epoch milliseconds. The result is in UTC.
func (r Record) Time(keys ...string) (time.Time, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if f, err := t.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC(), true
		}
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case string, []byte:
		s := strings.TrimSpace(toString(t))
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

// Package record holds the insertion-ordered JSON object used for account, presence and
// merged records. Field order survives decoding, mutation and encoding, so a record written
// back out lists its fields exactly as the upstream sent them.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IdentityField is the identity key carried by account and presence records.
const IdentityField = "xuid"

// Record is an ordered mapping of field names to raw JSON values. Values are kept verbatim
// so nested objects and number formatting round-trip unchanged.
type Record struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

// New returns an empty record.
func New() *Record {
	return &Record{fields: orderedmap.New[string, json.RawMessage]()}
}

// Parse decodes a single JSON object.
func Parse(data []byte) (*Record, error) {
	r := New()
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return r, nil
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns field names in order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.Each(func(key string, _ json.RawMessage) {
		keys = append(keys, key)
	})
	return keys
}

// Each visits fields in order.
func (r *Record) Each(fn func(key string, value json.RawMessage)) {
	if r.Len() == 0 {
		return
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Has reports whether key is present, even with a null value.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Get returns the raw value stored under key.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	if r.Len() == 0 {
		return nil, false
	}
	return r.fields.Get(key)
}

// Set stores a raw value. An existing key keeps its position; a new key is appended.
func (r *Record) Set(key string, value json.RawMessage) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, json.RawMessage]()
	}
	if value == nil {
		value = json.RawMessage("null")
	}
	r.fields.Set(key, value)
}

// SetValue encodes v and stores it under key.
func (r *Record) SetValue(key string, v any) error {
	raw, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	r.Set(key, raw)
	return nil
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if r.Len() > 0 {
		r.fields.Delete(key)
	}
}

// Clone returns a copy that shares no map state with r.
func (r *Record) Clone() *Record {
	out := New()
	r.Each(func(key string, value json.RawMessage) {
		out.Set(key, append(json.RawMessage(nil), value...))
	})
	return out
}

// Identity returns the record's identity key, or "" when absent.
func (r *Record) Identity() string {
	return r.String(IdentityField)
}

// String returns a string field. Numbers are returned in their literal form; anything
// else (missing, null, objects) yields "".
func (r *Record) String(key string) string {
	raw, ok := r.Get(key)
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
			return ""
		}
		return string(raw)
	default:
		return ""
	}
}

// Object returns a nested object field as a record, or nil when the field is not an object.
func (r *Record) Object(key string) *Record {
	raw, ok := r.Get(key)
	if !ok || !isObject(raw) {
		return nil
	}
	obj, err := Parse(raw)
	if err != nil {
		return nil
	}
	return obj
}

// Array returns the elements of an array field, or nil when the field is not an array.
func (r *Record) Array(key string) []json.RawMessage {
	raw, ok := r.Get(key)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// MarshalJSON writes fields in order. Values are compacted but otherwise untouched, so
// non-ASCII text and characters like '&' are not escaped.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	r.Each(func(key string, value json.RawMessage) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err = writeKey(&buf, key); err != nil {
			return
		}
		buf.WriteByte(':')
		if cerr := json.Compact(&buf, value); cerr != nil {
			err = fmt.Errorf("field %q: %w", key, cerr)
		}
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the record's fields with the members of a JSON object.
func (r *Record) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		return fmt.Errorf("record: expected JSON object")
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	r.fields = fields
	return nil
}

// FromItems decodes array items into records. Items that are not JSON objects are skipped
// and counted.
func FromItems(items []json.RawMessage) (records []*Record, skipped int) {
	records = make([]*Record, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			skipped++
			continue
		}
		rec, err := Parse(item)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func writeKey(buf *bytes.Buffer, key string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func encodeValue(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

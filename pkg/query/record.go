package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one output column of a record.
type Field struct {
	Key   string
	Value any
}

// Collection is the ordered list of child records joined under one alias.
type Collection struct {
	Alias   string
	Records []*Record
}

// Record is one reconstructed row of a join tree node: its requested
// fields plus one child collection per joined child alias.
type Record struct {
	Fields   []Field
	Children []Collection
}

// Get returns the value of field key.
func (r *Record) Get(key string) (any, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Child returns the records joined under alias.
func (r *Record) Child(alias string) []*Record {
	for _, c := range r.Children {
		if c.Alias == alias {
			return c.Records
		}
	}
	return nil
}

// ToMap converts the record to nested maps and slices.
func (r *Record) ToMap() map[string]any {
	m := make(map[string]any, len(r.Fields)+len(r.Children))
	for _, f := range r.Fields {
		m[f.Key] = f.Value
	}
	for _, c := range r.Children {
		m[c.Alias] = RecordsToMaps(c.Records)
	}
	return m
}

// RecordsToMaps converts each record with ToMap.
func RecordsToMaps(records []*Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r.ToMap()
	}
	return out
}

// MarshalJSON encodes the record as one object: fields first, then child
// collections, each in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(key string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		return nil
	}

	for _, f := range r.Fields {
		if err := writeKey(f.Key); err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", f.Key, err)
		}
		buf.Write(v)
	}
	for _, c := range r.Children {
		if err := writeKey(c.Alias); err != nil {
			return nil, err
		}
		records := c.Records
		if records == nil {
			records = []*Record{}
		}
		v, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Package exportcache implements the content-addressed artifact cache: a
// canonical JSON encoding of the export payload, a SHA-256 content hash over
// it, deterministic per-plan storage paths, get-or-generate semantics, and
// a retain-N pruning routine for old artifacts.
package exportcache

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize encodes v as canonical JSON: object keys sorted after NFC
// normalization, arrays by position, primitives in their literal JSON form.
// Unlike a plain json.Marshal the output is stable for any construction
// order of equivalent maps. Nulls are preserved, not stripped, so a present
// null field hashes differently from an absent one.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type mapEntry struct {
	key   string
	value any
}

func writeValue(buf *bytes.Buffer, v any) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}

	if number, ok := v.(json.Number); ok {
		return writeNumber(buf, number)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return writeString(buf, rv.String())
	case reflect.Bool:
		if rv.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.Float32, reflect.Float64:
		// Shortest round-trip form; deterministic across platforms.
		buf.WriteString(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
		return nil
	case reflect.Map:
		return writeMap(buf, rv)
	case reflect.Slice, reflect.Array:
		return writeSlice(buf, rv)
	case reflect.Invalid:
		buf.WriteString("null")
		return nil
	default:
		return ErrUnsupportedType
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	encoded, err := json.Marshal(norm.NFC.String(s))
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

// writeNumber passes a json.Number through verbatim when it is a valid JSON
// number literal, so decoded payloads keep their original form.
func writeNumber(buf *bytes.Buffer, n json.Number) error {
	s := n.String()
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		buf.WriteString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		buf.WriteString(s)
		return nil
	}
	return ErrInvalidNumber
}

func writeMap(buf *bytes.Buffer, rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		return ErrNonStringMapKey
	}

	entries := make([]mapEntry, 0, rv.Len())
	seen := map[string]struct{}{}

	for _, key := range rv.MapKeys() {
		keyStr := norm.NFC.String(key.String())
		if _, ok := seen[keyStr]; ok {
			return ErrKeyCollision
		}
		seen[keyStr] = struct{}{}
		entries = append(entries, mapEntry{key: keyStr, value: rv.MapIndex(key).Interface()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	buf.WriteByte('{')
	for i, entry := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, entry.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, entry.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeSlice(buf *bytes.Buffer, rv reflect.Value) error {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		buf.WriteString("null")
		return nil
	}

	buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

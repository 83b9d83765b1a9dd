package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MrWong99/hindinames/pkg/types"
)

// WriteCanonical encodes m as a JSON object keyed by English name, in the
// order of m.Keys.
func WriteCanonical(w io.Writer, m types.CanonicalMap) error {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, k := range m.Keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return fmt.Errorf("dataset: encode key %q: %w", k, err)
		}
		e := m.Entries[k]
		if e.Variants == nil {
			e.Variants = []string{}
		}
		val, err := marshalNoEscape(e)
		if err != nil {
			return fmt.Errorf("dataset: encode entry %q: %w", k, err)
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(val)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("dataset: indent canonical map: %w", err)
	}
	out.WriteByte('\n')
	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("dataset: write canonical map: %w", err)
	}
	return nil
}

// ReadCanonical decodes a canonical map, keeping the key order of the file.
func ReadCanonical(r io.Reader) (types.CanonicalMap, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return types.CanonicalMap{}, err
	}

	m := types.CanonicalMap{Entries: make(map[string]types.CanonicalEntry)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return types.CanonicalMap{}, fmt.Errorf("dataset: canonical key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return types.CanonicalMap{}, fmt.Errorf("dataset: canonical key: unexpected %v", tok)
		}
		var e types.CanonicalEntry
		if err := dec.Decode(&e); err != nil {
			return types.CanonicalMap{}, fmt.Errorf("dataset: canonical entry %q: %w", key, err)
		}
		if _, dup := m.Entries[key]; !dup {
			m.Keys = append(m.Keys, key)
		}
		m.Entries[key] = e
	}
	if err := expectDelim(dec, '}'); err != nil {
		return types.CanonicalMap{}, err
	}
	return m, nil
}

// LoadCanonical reads a canonical map from the file at path.
func LoadCanonical(path string) (types.CanonicalMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.CanonicalMap{}, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadCanonical(f)
}

// SaveCanonical writes m to the file at path, replacing it.
func SaveCanonical(path string, m types.CanonicalMap) error {
	return saveFile(path, func(w io.Writer) error { return WriteCanonical(w, m) })
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("dataset: canonical map: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("dataset: canonical map: want %q, got %v", want, tok)
	}
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

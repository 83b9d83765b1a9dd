// Package dataset reads and writes the JSON files exchanged by the pipeline
// stages: scored triples, unscored pairs, word lists and canonical maps.
//
// Triples are validated at this boundary. A record whose confidence score is
// missing or not a number is reported as an [*InvalidInputError] naming the
// record, so that the filter never sees a triple without a numeric score.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/pkg/types"
)

// InvalidInputError reports a malformed record in an input file.
type InvalidInputError struct {
	// Index is the zero-based position of the record in the input array.
	Index int

	// Reason describes what is wrong with the record.
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("dataset: record %d: %s", e.Index, e.Reason)
}

// ReadOption is a functional option for the readers in this package.
type ReadOption func(*readConfig)

type readConfig struct {
	nfc bool
}

// WithNFC normalizes Hindi text to Unicode NFC while reading, so that
// visually identical spellings group together. Nukta consonants stay
// decomposed under NFC.
func WithNFC() ReadOption {
	return func(c *readConfig) { c.nfc = true }
}

func newReadConfig(opts []ReadOption) readConfig {
	var c readConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

func (c readConfig) hindi(s string) string {
	if c.nfc {
		return norm.NFC.String(s)
	}
	return s
}

// ReadTriples decodes a JSON array of [english, hindi, score] records.
func ReadTriples(r io.Reader, opts ...ReadOption) ([]types.Triple, error) {
	cfg := newReadConfig(opts)

	records, err := readArray(r)
	if err != nil {
		return nil, err
	}

	out := make([]types.Triple, 0, len(records))
	for i, rec := range records {
		fields, err := splitRecord(i, rec)
		if err != nil {
			return nil, err
		}
		if len(fields) < 3 {
			return nil, &InvalidInputError{Index: i, Reason: "missing confidence score"}
		}
		if len(fields) > 3 {
			return nil, &InvalidInputError{Index: i, Reason: fmt.Sprintf("want 3 fields, got %d", len(fields))}
		}
		en, err := stringField(i, fields[0], "english text")
		if err != nil {
			return nil, err
		}
		hi, err := stringField(i, fields[1], "hindi text")
		if err != nil {
			return nil, err
		}
		var score any
		if err := json.Unmarshal(fields[2], &score); err != nil {
			return nil, &InvalidInputError{Index: i, Reason: "unreadable confidence score"}
		}
		f, ok := score.(float64)
		if !ok {
			return nil, &InvalidInputError{Index: i, Reason: fmt.Sprintf("confidence score is not a number: %s", fields[2])}
		}
		out = append(out, types.Triple{Source: en, Target: cfg.hindi(hi), Score: f})
	}
	return out, nil
}

// ReadPairs decodes a JSON array of [english, hindi] records. A trailing
// score, if present, is ignored.
func ReadPairs(r io.Reader, opts ...ReadOption) ([]align.Pair, error) {
	cfg := newReadConfig(opts)

	records, err := readArray(r)
	if err != nil {
		return nil, err
	}

	out := make([]align.Pair, 0, len(records))
	for i, rec := range records {
		fields, err := splitRecord(i, rec)
		if err != nil {
			return nil, err
		}
		if len(fields) < 2 {
			return nil, &InvalidInputError{Index: i, Reason: "want english and hindi text"}
		}
		en, err := stringField(i, fields[0], "english text")
		if err != nil {
			return nil, err
		}
		hi, err := stringField(i, fields[1], "hindi text")
		if err != nil {
			return nil, err
		}
		out = append(out, align.Pair{English: en, Hindi: cfg.hindi(hi)})
	}
	return out, nil
}

// ReadWords returns the non-empty, trimmed lines of r.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read words: %w", err)
	}
	return words, nil
}

// WriteTriples encodes triples as an indented JSON array. Devanagari is
// written verbatim rather than escaped.
func WriteTriples(w io.Writer, triples []types.Triple) error {
	if triples == nil {
		triples = []types.Triple{}
	}
	return writeIndented(w, triples)
}

// WriteJSON encodes any value the same way as [WriteTriples].
func WriteJSON(w io.Writer, v any) error {
	return writeIndented(w, v)
}

func readArray(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("dataset: decode array: %w", err)
	}
	return records, nil
}

func splitRecord(i int, rec json.RawMessage) ([]json.RawMessage, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return nil, &InvalidInputError{Index: i, Reason: "record is not an array"}
	}
	return fields, nil
}

func stringField(i int, raw json.RawMessage, what string) (string, error) {
	var s string
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", &InvalidInputError{Index: i, Reason: what + " is null"}
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &InvalidInputError{Index: i, Reason: what + " is not a string"}
	}
	return s, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	return nil
}

// LoadTriples reads triples from the file at path.
func LoadTriples(path string, opts ...ReadOption) ([]types.Triple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadTriples(f, opts...)
}

// SaveTriples writes triples to the file at path, replacing it.
func SaveTriples(path string, triples []types.Triple) error {
	return saveFile(path, func(w io.Writer) error { return WriteTriples(w, triples) })
}

func saveFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("dataset: close %q: %w", path, err)
	}
	return nil
}

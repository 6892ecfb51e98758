// Package master reads, merges and atomically rewrites the persisted
// master dataset of month starts.
package master

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

// ErrSchema is returned when the master header lacks a required column.
// Row keys cannot be computed, so it is fatal.
var ErrSchema = errors.New("master schema")

// Master dataset columns
const (
	ColCountry            = "Country"
	ColHijriYear          = "HijriYear"
	ColHijriMonth         = "HijriMonth"
	ColGregorianStartDate = "GregorianStartDate"
	ColGregorianYear      = "GregorianYear"
	ColMethod             = "Method"
	ColConfidenceScore    = "ConfidenceScore"
	ColNotes              = "Notes"
	ColSourceURL          = "SourceURL"
	ColAuthority          = "Authority"
)

// RequiredColumns must all be present in the header
var RequiredColumns = []string{
	ColCountry, ColHijriYear, ColHijriMonth, ColGregorianStartDate,
	ColGregorianYear, ColMethod, ColConfidenceScore, ColNotes,
	ColSourceURL, ColAuthority,
}

// Dataset is the master table. Column order, extra columns and row order
// are preserved through a load and save.
type Dataset struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Load reads the master dataset from path
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open master: %w", err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read master %s: %w", path, err)
	}
	return d, nil
}

// Read parses a master dataset and checks its column set
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	d := &Dataset{Header: header, index: make(map[string]int, len(header))}
	for i, col := range header {
		if _, dup := d.index[col]; !dup {
			d.index[col] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := d.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchema, strings.Join(missing, ", "))
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(d.Rows)+2, err)
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		d.Rows = append(d.Rows, rec)
	}
	return d, nil
}

// Get returns a cell value
func (d *Dataset) Get(row int, col string) string {
	return d.Rows[row][d.index[col]]
}

func (d *Dataset) set(row int, col, value string) {
	d.Rows[row][d.index[col]] = value
}

// Key computes the reconciliation key of a row
func (d *Dataset) Key(row int) (model.Key, bool) {
	id, ok := vocab.NormalizeCountry(d.Get(row, ColCountry))
	if !ok {
		return model.Key{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(d.Get(row, ColHijriYear)))
	if err != nil || year <= 0 {
		return model.Key{}, false
	}
	month, ok := vocab.NormalizeHijriMonth(d.Get(row, ColHijriMonth))
	if !ok {
		return model.Key{}, false
	}
	return model.Key{CountryID: id, Year: year, Month: month}, true
}

// Curated reports whether a row carries a human-sourced Authority
func (d *Dataset) Curated(row int) bool {
	return strings.TrimSpace(d.Get(row, ColAuthority)) != ""
}

// Encode writes the dataset as CSV
func (d *Dataset) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Save atomically replaces path with the encoded dataset
func (d *Dataset) Save(path string) error {
	var buf strings.Builder
	if err := d.Encode(&buf); err != nil {
		return err
	}
	if err := WriteFileAtomic(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("save master: %w", err)
	}
	return nil
}

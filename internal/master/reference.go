package master

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

// Reference dataset columns
const (
	RefCountry        = "Country"
	RefHijriYear      = "Hijri_Year"
	RefHijriMonth     = "Hijri_Month"
	RefOfficialStatus = "Official_Status"
	RefConfidence     = "Confidence"
	RefCity           = "City"
)

// LoadReference reads the secondary reference dataset. Rows whose
// country, year or month cannot be resolved are skipped; the second
// return value counts them.
func LoadReference(path string) ([]model.ReferenceEntry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open reference: %w", err)
	}
	defer f.Close()

	entries, skipped, err := ReadReference(f)
	if err != nil {
		return nil, 0, fmt.Errorf("read reference %s: %w", path, err)
	}
	return entries, skipped, nil
}

// ReadReference parses reference rows in file order
func ReadReference(r io.Reader) ([]model.ReferenceEntry, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(col), "\uFEFF")] = i
	}
	for _, col := range []string{RefCountry, RefHijriYear, RefHijriMonth, RefOfficialStatus} {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("%w: reference missing column %s", ErrSchema, col)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []model.ReferenceEntry
	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		country := get(rec, RefCountry)
		id, ok := vocab.NormalizeCountry(country)
		if !ok {
			skipped++
			continue
		}
		year, err := strconv.Atoi(get(rec, RefHijriYear))
		if err != nil {
			skipped++
			continue
		}
		month, ok := vocab.NormalizeHijriMonth(get(rec, RefHijriMonth))
		if !ok {
			skipped++
			continue
		}

		entries = append(entries, model.ReferenceEntry{
			Key:        model.Key{CountryID: id, Year: year, Month: month},
			Country:    country,
			StatusRaw:  get(rec, RefOfficialStatus),
			Confidence: get(rec, RefConfidence),
			City:       get(rec, RefCity),
		})
	}
	return entries, skipped, nil
}

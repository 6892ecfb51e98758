package model

import (
	"strconv"
	"strings"
)

// ExportHeader is the column order shared by candidate and reconciled exports
var ExportHeader = []string{
	"hijriYear", "hijriMonth", "countryId", "countryName",
	"gregorianStartDate", "gregorianYear", "method", "methodRaw", "source",
}

// ExportRow is the external record schema. Field order matches ExportHeader.
type ExportRow struct {
	HijriYear          int    `json:"hijriYear"`
	HijriMonth         int    `json:"hijriMonth"`
	CountryID          string `json:"countryId"`
	CountryName        string `json:"countryName"`
	GregorianStartDate Date   `json:"gregorianStartDate"`
	GregorianYear      int    `json:"gregorianYear"`
	Method             string `json:"method"`
	MethodRaw          string `json:"methodRaw"`
	Source             string `json:"source"`
}

// CandidateRow converts a candidate for export. The candidate's evidence
// date is written in the date column.
func CandidateRow(c CandidateRecord, countryName string) ExportRow {
	return ExportRow{
		HijriYear:          c.HijriYear,
		HijriMonth:         c.HijriMonth,
		CountryID:          c.CountryID,
		CountryName:        countryName,
		GregorianStartDate: c.GregorianDate,
		GregorianYear:      c.GregorianDate.Year(),
		Method:             string(c.Status),
		MethodRaw:          c.StatusRaw,
		Source:             string(c.Strategy) + ":" + c.DocumentID,
	}
}

// ReconciledRow converts a reconciled record for export
func ReconciledRow(r ReconciledRecord) ExportRow {
	return ExportRow{
		HijriYear:          r.Year,
		HijriMonth:         r.Month,
		CountryID:          r.CountryID,
		CountryName:        r.CountryName,
		GregorianStartDate: r.GregorianStartDate,
		GregorianYear:      r.GregorianStartDate.Year(),
		Method:             string(r.Method),
		MethodRaw:          r.MethodRaw,
		Source:             r.Source,
	}
}

// CandidateFromRow restores a candidate from an exported row. The source
// column is split back into strategy and document id.
func CandidateFromRow(r ExportRow) CandidateRecord {
	strategy, docID, _ := strings.Cut(r.Source, ":")
	return CandidateRecord{
		HijriYear:     r.HijriYear,
		HijriMonth:    r.HijriMonth,
		GregorianDate: r.GregorianStartDate,
		Country:       r.CountryName,
		CountryID:     r.CountryID,
		StatusRaw:     r.MethodRaw,
		Status:        CanonicalStatus(r.Method),
		Strategy:      Strategy(strategy),
		DocumentID:    docID,
	}
}

// Strings renders the row as CSV fields
func (r ExportRow) Strings() []string {
	year := ""
	if r.GregorianYear != 0 {
		year = strconv.Itoa(r.GregorianYear)
	}
	return []string{
		strconv.Itoa(r.HijriYear),
		strconv.Itoa(r.HijriMonth),
		r.CountryID,
		r.CountryName,
		r.GregorianStartDate.String(),
		year,
		r.Method,
		r.MethodRaw,
		r.Source,
	}
}

package model

import (
	"fmt"
	"strings"
)

// HijriMonth describes one of the twelve Hijri months.
type HijriMonth struct {
	Number int
	Code   string // three-letter page code, e.g. "SHW"
	Name   string
}

// HijriMonths lists the months in calendar order.
var HijriMonths = [12]HijriMonth{
	{1, "MUH", "Muharram"},
	{2, "SFR", "Safar"},
	{3, "RBA", "Rabi al-Awwal"},
	{4, "RBT", "Rabi al-Thani"},
	{5, "JMO", "Jumada al-Ula"},
	{6, "JMT", "Jumada al-Thani"},
	{7, "RJB", "Rajab"},
	{8, "SHB", "Sha'ban"},
	{9, "RMD", "Ramadan"},
	{10, "SHW", "Shawwal"},
	{11, "ZQD", "Dhul Qi'dah"},
	{12, "ZHJ", "Dhul Hijjah"},
}

// ValidMonth reports whether n is a Hijri month number.
func ValidMonth(n int) bool {
	return n >= 1 && n <= 12
}

// MonthByCode resolves a three-letter code (any case) to its month number.
func MonthByCode(code string) (int, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, m := range HijriMonths {
		if m.Code == code {
			return m.Number, true
		}
	}
	return 0, false
}

// MonthCode returns the code for month n, or "" when n is out of range.
func MonthCode(n int) string {
	if !ValidMonth(n) {
		return ""
	}
	return HijriMonths[n-1].Code
}

// MonthName returns the display name for month n, or "" when out of range.
func MonthName(n int) string {
	if !ValidMonth(n) {
		return ""
	}
	return HijriMonths[n-1].Name
}

// DocumentKey identifies one archived page: a Hijri year and month.
type DocumentKey struct {
	Year  int
	Month int
}

// ID renders the key as "{year}{CODE}", e.g. "1438SHW".
func (k DocumentKey) ID() string {
	return fmt.Sprintf("%d%s", k.Year, MonthCode(k.Month))
}

// FileName renders the page file name, e.g. "1438shw.html".
func (k DocumentKey) FileName() string {
	return fmt.Sprintf("%d%s.html", k.Year, strings.ToLower(MonthCode(k.Month)))
}

// ParseDocumentID is the inverse of DocumentKey.ID.
func ParseDocumentID(id string) (DocumentKey, bool) {
	if len(id) != 7 {
		return DocumentKey{}, false
	}
	var year int
	if _, err := fmt.Sscanf(id[:4], "%d", &year); err != nil {
		return DocumentKey{}, false
	}
	month, ok := MonthByCode(id[4:])
	if !ok {
		return DocumentKey{}, false
	}
	return DocumentKey{Year: year, Month: month}, true
}

// DocumentKeys enumerates every (year, month) page between two years inclusive.
func DocumentKeys(fromYear, toYear int) []DocumentKey {
	var keys []DocumentKey
	for y := fromYear; y <= toYear; y++ {
		for m := 1; m <= 12; m++ {
			keys = append(keys, DocumentKey{Year: y, Month: m})
		}
	}
	return keys
}

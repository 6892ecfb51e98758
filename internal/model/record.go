package model

import "fmt"

// Strategy names the extraction strategy that produced a candidate
type Strategy string

const (
	StrategyCountryList    Strategy = "CountryList"
	StrategyTable          Strategy = "Table"
	StrategyDeclaration    Strategy = "Declaration"
	StrategySightingReport Strategy = "SightingReport"
)

// Strategies lists the strategies in deduplication priority order
var Strategies = []Strategy{
	StrategyCountryList,
	StrategyTable,
	StrategyDeclaration,
	StrategySightingReport,
}

// CanonicalStatus is the closed vocabulary a raw status normalizes to
type CanonicalStatus string

const (
	StatusSightingConfirmed   CanonicalStatus = "SightingConfirmed"
	StatusCalculatedCalendar  CanonicalStatus = "CalculatedCalendar"
	StatusNotSightedIstikmal  CanonicalStatus = "NotSighted_Istikmal"
	StatusFollowSaudiArabia   CanonicalStatus = "FollowSaudiArabia"
	StatusFollowOther         CanonicalStatus = "FollowOther"
	StatusOfficialDeclaration CanonicalStatus = "OfficialDeclaration"
	StatusUnknown             CanonicalStatus = "Unknown"
)

// CandidateRecord is one piece of evidence extracted from a document
type CandidateRecord struct {
	HijriYear     int             `json:"hijriYear"`
	HijriMonth    int             `json:"hijriMonth"`
	GregorianDate Date            `json:"gregorianDate"`
	Country       string          `json:"country"`             // Raw country text as found
	CountryID     string          `json:"countryId,omitempty"` // Resolved target country, "" when unmapped
	City          string          `json:"city,omitempty"`
	StatusRaw     string          `json:"statusRaw"`
	Status        CanonicalStatus `json:"status"`
	Strategy      Strategy        `json:"sourceStrategy"`
	DocumentID    string          `json:"sourceDocumentId"`
}

// Key returns the reconciliation key of the candidate
func (c CandidateRecord) Key() Key {
	return Key{CountryID: c.CountryID, Year: c.HijriYear, Month: c.HijriMonth}
}

// Valid reports whether the candidate satisfies the record invariants:
// a Hijri month in range and a set Gregorian date.
func (c CandidateRecord) Valid() bool {
	return c.HijriYear > 0 && ValidMonth(c.HijriMonth) && c.GregorianDate.IsSet()
}

// Key identifies one month start for one country
type Key struct {
	CountryID string `json:"countryId"`
	Year      int    `json:"hijriYear"`
	Month     int    `json:"hijriMonth"`
}

// Less orders keys by year, month, then country
func (k Key) Less(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.CountryID < other.CountryID
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%02d", k.CountryID, k.Year, k.Month)
}

// ReconciledRecord is the decision reached for one key
type ReconciledRecord struct {
	Key
	CountryName        string          `json:"countryName"`
	GregorianStartDate Date            `json:"gregorianStartDate"`
	Method             CanonicalStatus `json:"method"`
	MethodRaw          string          `json:"methodRaw"`
	MethodLabel        string          `json:"methodLabel"` // Value written to the master Method column
	Confidence         float64         `json:"confidence"`
	Notes              string          `json:"notes"`
	Source             string          `json:"source"`
	Strategy           Strategy        `json:"sourceStrategy,omitempty"`
	ReferenceOnly      bool            `json:"referenceOnly,omitempty"`
}

// ReferenceEntry is a row of the secondary reference dataset
type ReferenceEntry struct {
	Key
	Country    string
	StatusRaw  string
	Confidence string
	City       string
}

// Package reconcile reduces all candidates for a (country, year, month)
// key to one decision: the highest-authority candidate wins, the earliest
// inferred start date breaks ties.
package reconcile

import (
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

// Authority is the rank a candidate earns
type Authority struct {
	Tier       string
	Priority   int
	Confidence float64
	Offset     int    // days from the evidence date to day 1 of the month
	Label      string // master Method value
}

type authorityRule struct {
	Authority
	match func(c model.CandidateRecord, rule string) bool
}

// authorityRules are tested in order. The observer rule precedes the
// general sighting rule because both see SightingConfirmed.
var authorityRules = []authorityRule{
	{
		Authority: Authority{Tier: "declaration", Priority: 10, Confidence: 0.9, Label: "Official Declaration"},
		match: func(c model.CandidateRecord, _ string) bool {
			return vocab.Fold(c.StatusRaw) == "official declaration"
		},
	},
	{
		Authority: Authority{Tier: "official", Priority: 9, Confidence: 0.9, Label: "Official Declaration"},
		match: func(c model.CandidateRecord, _ string) bool {
			return c.Status == model.StatusOfficialDeclaration
		},
	},
	{
		Authority: Authority{Tier: "observer-seen", Priority: 3, Confidence: 0.6, Offset: 1, Label: "Seen"},
		match: func(c model.CandidateRecord, _ string) bool {
			return c.Strategy == model.StrategySightingReport && c.Status == model.StatusSightingConfirmed
		},
	},
	{
		Authority: Authority{Tier: "sighting", Priority: 8, Confidence: 0.8, Label: "Sighting"},
		match: func(c model.CandidateRecord, _ string) bool {
			return c.Status == model.StatusSightingConfirmed
		},
	},
	{
		Authority: Authority{Tier: "calculation", Priority: 7, Confidence: 0.8, Label: "Calculations"},
		match: func(c model.CandidateRecord, _ string) bool {
			return c.Status == model.StatusCalculatedCalendar
		},
	},
	{
		Authority: Authority{Tier: "completion", Priority: 6, Confidence: 0.8, Label: "30 days completed"},
		match: func(c model.CandidateRecord, rule string) bool {
			return c.Status == model.StatusNotSightedIstikmal && rule == "completion"
		},
	},
	{
		Authority: Authority{Tier: "follow-saudi", Priority: 5, Confidence: 0.7, Label: "Follow Saudi Arabia"},
		match: func(c model.CandidateRecord, _ string) bool {
			return c.Status == model.StatusFollowSaudiArabia
		},
	},
	{
		Authority: Authority{Tier: "follow", Priority: 5, Confidence: 0.7, Label: "Follow Other"},
		match: func(c model.CandidateRecord, _ string) bool {
			return c.Status == model.StatusFollowOther
		},
	},
}

// Rank returns the authority of a candidate. Placeholders, negative
// observations and unrecognized statuses carry no usable date and
// return false.
func Rank(c model.CandidateRecord) (Authority, bool) {
	if vocab.IsPlaceholder(c.StatusRaw) || !c.GregorianDate.IsSet() {
		return Authority{}, false
	}
	var ruleName string
	if rule, ok := vocab.MatchStatusRule(c.StatusRaw); ok {
		ruleName = rule.Name
	}
	for _, r := range authorityRules {
		if r.match(c, ruleName) {
			return r.Authority, true
		}
	}
	return Authority{}, false
}

// StartDate infers day 1 of the month from a candidate's evidence date
func StartDate(c model.CandidateRecord) (model.Date, bool) {
	a, ok := Rank(c)
	if !ok {
		return model.Date{}, false
	}
	return c.GregorianDate.AddDays(a.Offset), true
}

// Tiers lists the authority tiers in evaluation order
func Tiers() []Authority {
	out := make([]Authority, len(authorityRules))
	for i, r := range authorityRules {
		out[i] = r.Authority
	}
	return out
}

package vocab

import (
	"strings"

	"github.com/ppiankov/hilal/internal/model"
)

// StatusRule maps raw status text to a canonical status when any of its
// phrases occurs in the folded text. Words are matched as whole words,
// Phrases as substrings.
type StatusRule struct {
	Name    string
	Phrases []string
	Words   []string
	Status  model.CanonicalStatus
}

func (r StatusRule) matches(folded string) bool {
	for _, p := range r.Phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	for _, w := range r.Words {
		if ContainsWord(folded, w) {
			return true
		}
	}
	return false
}

// statusRules are evaluated in order; the first match wins. Negative and
// completion phrases come before the sighting rule so that "Not Seen" or
// "not sighted, 30 days completed" never read as a sighting, and the
// Saudi-specific follow rule comes before the generic one.
var statusRules = []StatusRule{
	{
		Name:    "not-seen",
		Phrases: []string{"not seen", "not sighted", "no sighting", "was not sighted"},
		Status:  model.StatusNotSightedIstikmal,
	},
	{
		Name:    "completion",
		Phrases: []string{"30 day", "30days", "completion", "completed", "istikmal"},
		Status:  model.StatusNotSightedIstikmal,
	},
	{
		Name:    "sighting",
		Phrases: []string{"sighting", "sighted"},
		Words:   []string{"seen"},
		Status:  model.StatusSightingConfirmed,
	},
	{
		Name: "calculation",
		Phrases: []string{
			"calculation", "calculated", "astronomical", "criteria",
			"moon born", "moonset", "moon set", "altitude", "elongation",
			"umm al qura", "ummul qura",
		},
		Status: model.StatusCalculatedCalendar,
	},
	{
		Name:    "follow-saudi",
		Phrases: []string{"follow saudi", "follows saudi", "following saudi", "followed saudi"},
		Status:  model.StatusFollowSaudiArabia,
	},
	{
		Name:    "follow",
		Phrases: []string{"follow"},
		Status:  model.StatusFollowOther,
	},
	{
		Name:    "official",
		Phrases: []string{"announce", "official", "declar"},
		Status:  model.StatusOfficialDeclaration,
	},
}

// StatusRules returns a copy of the ordered status rule table
func StatusRules() []StatusRule {
	out := make([]StatusRule, len(statusRules))
	copy(out, statusRules)
	return out
}

// NormalizeStatus maps raw status text to exactly one canonical status.
// Unrecognized text, including the empty string, maps to Unknown.
func NormalizeStatus(raw string) model.CanonicalStatus {
	if rule, ok := MatchStatusRule(raw); ok {
		return rule.Status
	}
	return model.StatusUnknown
}

// MatchStatusRule returns the first rule that matches raw
func MatchStatusRule(raw string) (StatusRule, bool) {
	folded := Fold(raw)
	if folded == "" {
		return StatusRule{}, false
	}
	for _, rule := range statusRules {
		if rule.matches(folded) {
			return rule, true
		}
	}
	return StatusRule{}, false
}

var placeholderPhrases = []string{"will be added", "to be added", "to be announced", "tba", "tbd"}

// IsPlaceholder reports whether text marks pending data: question-mark
// runs, "pending", "unknown", or "will be added" style notes.
func IsPlaceholder(raw string) bool {
	if strings.Contains(raw, "??") {
		return true
	}
	folded := Fold(raw)
	switch folded {
	case "pending", "unknown", "n/a", "?":
		return true
	}
	for _, p := range placeholderPhrases {
		if ContainsWord(folded, p) {
			return true
		}
	}
	return false
}

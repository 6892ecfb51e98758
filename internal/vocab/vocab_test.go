package vocab

import (
	"testing"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Türkiye", "turkiye"},
		{"  S. Africa ", "s africa"},
		{"U.S.A.", "usa"},
		{"Sha'ban", "shaban"},
		{"Rabi al-Awwal", "rabi al awwal"},
		{"Saudi Arabia -", "saudi arabia"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestNormalizeCountry_AliasEquivalence(t *testing.T) {
	a, okA := NormalizeCountry("S. Africa")
	b, okB := NormalizeCountry("S Africa")
	c, okC := NormalizeCountry("South Africa")

	require.True(t, okA)
	require.True(t, okB)
	require.True(t, okC)
	assert.Equal(t, "za", a)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		raw    string
		wantID string
		wantOK bool
	}{
		{"Türkiye", "tr", true},
		{"Turkiye", "tr", true},
		{"Turkey", "tr", true},
		{"saudi", "sa", true},
		{"KSA", "sa", true},
		{"USA", "us", true},
		{"U.S.A.", "us", true},
		{"United States", "us", true},
		{"North America", "us", true},
		{"Pakistan", "pk", true},
		{"Saudi Arabia (30 days completion)", "sa", true},
		{"Nigeria follows Saudi Arabia", "ng", true},
		{"Niger", "", false},
		{"India", "", false},
		{"Bangladesh", "", false},
		{"South America", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, ok := NormalizeCountry(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestTargetCountries(t *testing.T) {
	targets := TargetCountries()
	require.Len(t, targets, 15)

	for _, c := range targets {
		id, ok := NormalizeCountry(c.Name)
		assert.True(t, ok, c.Name)
		assert.Equal(t, c.ID, id, c.Name)
		assert.Equal(t, c.Name, CountryName(c.ID))
	}
	assert.Equal(t, "Türkiye", CountryName("tr"))
	assert.Equal(t, "", CountryName("in"))
}

func TestKnownCountries_LongestFirst(t *testing.T) {
	known := KnownCountries()
	require.NotEmpty(t, known)
	for i := 1; i < len(known); i++ {
		assert.GreaterOrEqual(t, len(known[i-1]), len(known[i]))
	}
	assert.Contains(t, known, "South Africa")
	assert.Contains(t, known, "Niger")
}

func TestCanonicalKnown(t *testing.T) {
	assert.Equal(t, "South Africa", CanonicalKnown("S Africa"))
	assert.Equal(t, "UK", CanonicalKnown("United Kingdom"))
	assert.Equal(t, "France", CanonicalKnown("France"))
}

func TestStateAndProvinceTables(t *testing.T) {
	assert.True(t, IsUSState("TX"))
	assert.True(t, IsUSState("New York"))
	assert.False(t, IsUSState("Ontario"))
	assert.True(t, IsCanadianProvince("Ontario"))
	assert.True(t, IsCanadianProvince("ON"))
	assert.False(t, IsCanadianProvince("TX"))

	cities := Cities()
	require.NotEmpty(t, cities)
	assert.Equal(t, "Berlin", cities[0].City)
	assert.Equal(t, "Germany", cities[0].Country)
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want model.CanonicalStatus
	}{
		{"Local Sighting", model.StatusSightingConfirmed},
		{"moon sighted in Morocco", model.StatusSightingConfirmed},
		{"Seen", model.StatusSightingConfirmed},
		{"Calculations", model.StatusCalculatedCalendar},
		{"Calculated Calendar", model.StatusCalculatedCalendar},
		{"Umm al-Qura", model.StatusCalculatedCalendar},
		{"Moon born before sunset", model.StatusCalculatedCalendar},
		{"30 days completion", model.StatusNotSightedIstikmal},
		{"30 days completed", model.StatusNotSightedIstikmal},
		{"Not Seen", model.StatusNotSightedIstikmal},
		{"Follow Saudi", model.StatusFollowSaudiArabia},
		{"follows Saudi Arabia", model.StatusFollowSaudiArabia},
		{"Follow Turkey", model.StatusFollowOther},
		{"following Egypt", model.StatusFollowOther},
		{"Official Announcement", model.StatusOfficialDeclaration},
		{"Official Declaration", model.StatusOfficialDeclaration},
		{"announced by ministry", model.StatusOfficialDeclaration},
		{"Declared: Monday", model.StatusOfficialDeclaration},
		{"", model.StatusUnknown},
		{"seenery", model.StatusUnknown},
		{"whatever", model.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestStatusRules_OrderIsSignificant(t *testing.T) {
	rules := StatusRules()
	index := make(map[string]int)
	for i, r := range rules {
		index[r.Name] = i
	}

	assert.Less(t, index["not-seen"], index["sighting"])
	assert.Less(t, index["completion"], index["sighting"])
	assert.Less(t, index["follow-saudi"], index["follow"])
	assert.Less(t, index["follow"], index["official"])

	// Every rule is reachable through its own first phrase or word
	for _, r := range rules {
		probe := ""
		if len(r.Phrases) > 0 {
			probe = r.Phrases[0]
		} else {
			probe = r.Words[0]
		}
		assert.Equal(t, r.Status, NormalizeStatus(probe), r.Name)
	}
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("????"))
	assert.True(t, IsPlaceholder("June ??, 2017"))
	assert.True(t, IsPlaceholder("Pending"))
	assert.True(t, IsPlaceholder("unknown"))
	assert.True(t, IsPlaceholder("Date will be added later"))
	assert.False(t, IsPlaceholder("June 25, 2017"))
	assert.False(t, IsPlaceholder("Unknown Village Committee"))
}

func TestNormalizeHijriMonth(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"10", 10, true},
		{"SHW", 10, true},
		{"shw", 10, true},
		{"Shawwal", 10, true},
		{"Ramadhan", 9, true},
		{"Sha'ban", 8, true},
		{"Dhul Qi'dah", 11, true},
		{"Dhu al-Hijjah", 12, true},
		{"Rabi' al-Awwal", 3, true},
		{"Jumada al-Akhirah", 6, true},
		{"13", 13, false},
		{"May", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := NormalizeHijriMonth(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, n)
			}
		})
	}
}

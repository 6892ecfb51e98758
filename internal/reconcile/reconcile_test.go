package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/vocab"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func cand(t *testing.T, country, day, raw string, strategy model.Strategy) model.CandidateRecord {
	t.Helper()
	id, ok := vocab.NormalizeCountry(country)
	require.True(t, ok, country)
	return model.CandidateRecord{
		HijriYear:     1445,
		HijriMonth:    9,
		GregorianDate: date(t, day),
		Country:       country,
		CountryID:     id,
		StatusRaw:     raw,
		Status:        vocab.NormalizeStatus(raw),
		Strategy:      strategy,
		DocumentID:    "1445RMD",
	}
}

func TestStartDateInference(t *testing.T) {
	seen := cand(t, "USA", "2024-03-10", "Seen", model.StrategySightingReport)
	start, ok := StartDate(seen)
	require.True(t, ok)
	assert.Equal(t, "2024-03-11", start.String())

	official := cand(t, "Egypt", "2024-03-10", "Official Declaration", model.StrategyDeclaration)
	start, ok = StartDate(official)
	require.True(t, ok)
	assert.Equal(t, "2024-03-10", start.String())

	sighting := cand(t, "Morocco", "2024-03-10", "Local Sighting", model.StrategyTable)
	start, ok = StartDate(sighting)
	require.True(t, ok)
	assert.Equal(t, "2024-03-10", start.String())
}

func TestRank(t *testing.T) {
	tests := []struct {
		raw      string
		strategy model.Strategy
		tier     string
		priority int
		conf     float64
	}{
		{"Official Declaration", model.StrategyDeclaration, "declaration", 10, 0.9},
		{"Official Announcement", model.StrategyTable, "official", 9, 0.9},
		{"Local Sighting", model.StrategyCountryList, "sighting", 8, 0.8},
		{"Calculations", model.StrategyTable, "calculation", 7, 0.8},
		{"30 days completion", model.StrategyCountryList, "completion", 6, 0.8},
		{"Follow Saudi", model.StrategyCountryList, "follow-saudi", 5, 0.7},
		{"Follow Turkey", model.StrategyCountryList, "follow", 5, 0.7},
		{"Seen", model.StrategySightingReport, "observer-seen", 3, 0.6},
		{"30 days completed", model.StrategySightingReport, "completion", 6, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, ok := Rank(cand(t, "Jordan", "2024-03-10", tt.raw, tt.strategy))
			require.True(t, ok)
			assert.Equal(t, tt.tier, a.Tier)
			assert.Equal(t, tt.priority, a.Priority)
			assert.InDelta(t, tt.conf, a.Confidence, 1e-9)
		})
	}
}

func TestRankDiscards(t *testing.T) {
	for _, raw := range []string{"Not Seen", "Pending", "????", "will be added", "something else", ""} {
		_, ok := Rank(cand(t, "Jordan", "2024-03-10", raw, model.StrategyCountryList))
		assert.False(t, ok, raw)
	}
}

func TestTiers(t *testing.T) {
	tiers := Tiers()
	require.NotEmpty(t, tiers)
	assert.Equal(t, "declaration", tiers[0].Tier)
	assert.Equal(t, 10, tiers[0].Priority)
	for _, a := range tiers {
		assert.NotEmpty(t, a.Label, a.Tier)
	}
}

func TestReconcileTieBreakEarliest(t *testing.T) {
	l := NewLedger()
	l.Add(
		cand(t, "Egypt", "2024-03-11", "Announced", model.StrategyTable),
		cand(t, "Egypt", "2024-03-10", "Announced", model.StrategyTable),
	)

	res := New(Options{}).Reconcile(l)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2024-03-10", res.Records[0].GregorianStartDate.String())
	assert.Equal(t, model.StatusOfficialDeclaration, res.Records[0].Method)
}

func TestReconcileAuthorityBeatsDate(t *testing.T) {
	l := NewLedger()
	l.Add(
		cand(t, "USA", "2024-03-09", "Seen", model.StrategySightingReport),
		cand(t, "USA", "2024-03-11", "Calculations", model.StrategyTable),
		cand(t, "USA", "2024-03-08", "Not Seen", model.StrategySightingReport),
	)

	res := New(Options{SourceBaseURL: "https://www.moonsighting.com/"}).Reconcile(l)
	require.Len(t, res.Records, 1)
	r := res.Records[0]
	assert.Equal(t, "2024-03-11", r.GregorianStartDate.String())
	assert.Equal(t, model.StatusCalculatedCalendar, r.Method)
	assert.Equal(t, "Calculations", r.MethodLabel)
	assert.InDelta(t, 0.8, r.Confidence, 1e-9)
	assert.Equal(t, "United States", r.CountryName)
	assert.Equal(t, "moonsighting.com: Calculations [Table, 1445RMD]", r.Notes)
	assert.Equal(t, "https://www.moonsighting.com/1445rmd.html", r.Source)
	assert.Equal(t, 1, res.Discarded)
}

func TestReconcileLoneObserver(t *testing.T) {
	l := NewLedger()
	l.Add(cand(t, "South Africa", "2024-03-10", "Seen", model.StrategySightingReport))

	res := New(Options{}).Reconcile(l)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2024-03-11", res.Records[0].GregorianStartDate.String())
	assert.InDelta(t, 0.6, res.Records[0].Confidence, 1e-9)
	assert.Equal(t, "Seen", res.Records[0].MethodLabel)
}

func TestReconcileReferenceFallback(t *testing.T) {
	l := NewLedger()
	l.Add(cand(t, "Jordan", "2024-03-10", "Pending", model.StrategyCountryList))

	jo := model.Key{CountryID: "jo", Year: 1445, Month: 9}
	ma := model.Key{CountryID: "ma", Year: 1445, Month: 10}
	ref := []model.ReferenceEntry{
		{Key: jo, Country: "Jordan", StatusRaw: "Sighting", Confidence: "0.75"},
		{Key: ma, Country: "Morocco", StatusRaw: "Follow Saudi", Confidence: "high"},
		{Key: model.Key{Year: 1445, Month: 9}, Country: "Atlantis", StatusRaw: "Sighting"},
	}

	res := New(Options{Reference: ref}).Reconcile(l)
	require.Len(t, res.Records, 2)
	assert.Equal(t, []model.Key{jo, ma}, res.NoDate)

	r := res.Records[0]
	assert.True(t, r.ReferenceOnly)
	assert.False(t, r.GregorianStartDate.IsSet())
	assert.Equal(t, model.StatusSightingConfirmed, r.Method)
	assert.Equal(t, "Sighting", r.MethodLabel)
	assert.InDelta(t, 0.75, r.Confidence, 1e-9)
	assert.Equal(t, "reference: Sighting (no date)", r.Notes)
	assert.Equal(t, 1, res.Discarded)

	assert.InDelta(t, 0.5, res.Records[1].Confidence, 1e-9)
	assert.Equal(t, model.StatusFollowSaudiArabia, res.Records[1].Method)
}

func TestReconcileExtractionBeatsReference(t *testing.T) {
	l := NewLedger()
	l.Add(cand(t, "Jordan", "2024-03-10", "Local Sighting", model.StrategyTable))
	ref := []model.ReferenceEntry{{Key: model.Key{CountryID: "jo", Year: 1445, Month: 9}, StatusRaw: "Calculations"}}

	res := New(Options{Reference: ref}).Reconcile(l)
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].ReferenceOnly)
	assert.Empty(t, res.NoDate)
}

func TestReconcileDeterministic(t *testing.T) {
	build := func(order []int) []model.ReconciledRecord {
		all := []model.CandidateRecord{
			cand(t, "Egypt", "2024-03-10", "Local Sighting", model.StrategyTable),
			cand(t, "Turkey", "2024-03-11", "Calculations", model.StrategyTable),
			cand(t, "Saudi Arabia", "2024-03-10", "Official Declaration", model.StrategyDeclaration),
			cand(t, "USA", "2024-03-10", "Seen", model.StrategySightingReport),
		}
		l := NewLedger()
		for _, i := range order {
			l.Add(all[i])
		}
		return New(Options{}).Reconcile(l).Records
	}

	a := build([]int{0, 1, 2, 3})
	b := build([]int{3, 2, 1, 0})
	assert.Equal(t, a, b)

	require.Len(t, a, 4)
	ids := []string{a[0].CountryID, a[1].CountryID, a[2].CountryID, a[3].CountryID}
	assert.Equal(t, []string{"eg", "sa", "tr", "us"}, ids)
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	c := cand(t, "Egypt", "2024-03-10", "Local Sighting", model.StrategyTable)
	unresolved := c
	unresolved.CountryID = ""
	l.Add(c, unresolved, c)

	assert.Equal(t, 2, l.Len())
	assert.Len(t, l.Keys(), 1)
	assert.Len(t, l.Candidates(c.Key()), 2)
	assert.Len(t, l.All(), 2)
}

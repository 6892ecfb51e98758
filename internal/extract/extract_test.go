package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/hilal/internal/model"
)

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func textDoc(lines ...string) *Document {
	return NewTextDocument("test.txt", strings.Join(lines, "\n"))
}

func countries(cands []model.CandidateRecord) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Country
	}
	return out
}

func TestDeclarationSplitsCountryList(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 SHW - Shawwal (month 10)",
		"India, Pakistan and Bangladesh officially declared Shawwal 1, 1438 hijri to be on Sunday, June 25, 2017.",
	)

	res := NewDeclaration().Extract(doc)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, []string{"India", "Pakistan", "Bangladesh"}, countries(res.Candidates))
	for _, c := range res.Candidates {
		assert.Equal(t, "2017-06-25", c.GregorianDate.String())
		assert.Equal(t, 1438, c.HijriYear)
		assert.Equal(t, 10, c.HijriMonth)
		assert.Equal(t, model.StatusOfficialDeclaration, c.Status)
		assert.Equal(t, model.StrategyDeclaration, c.Strategy)
		assert.Equal(t, "1438SHW", c.DocumentID)
	}

	out := NewExtractor(nil).ExtractDocument(doc)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, "pk", out.Candidates[0].CountryID)
	assert.Equal(t, 3, out.Raw)
	assert.Equal(t, 2, out.Skips[model.SkipUnresolvableCountry])
}

func TestDeclarationWrappedDate(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 SHW - Shawwal (month 10)",
		"Saudi Arabia announced Shawwal 1, 1438 to be on",
		"Sunday, June 25, 2017.",
	)

	res := NewDeclaration().Extract(doc)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "sa", res.Candidates[0].CountryID)
	assert.Equal(t, "2017-06-25", res.Candidates[0].GregorianDate.String())
}

func TestDeclarationSkips(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 SHW - Shawwal (month 10)",
		"Egypt and Jordan declared Shawwal 1, 1438 to be on a date to follow.",
		"More news soon.",
		"Morocco declared Shawwal 2, 1438 to be on Monday, June 26, 2017.",
		"Libya declared Blorp 1, 1438 to be on Monday, June 26, 2017.",
	)

	res := NewDeclaration().Extract(doc)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 1, res.Skips[model.SkipAmbiguousDeclaration])
	assert.Equal(t, 2, res.Skips[model.SkipUnparseableLine])
}

func TestDeclarationRequiresHijriContext(t *testing.T) {
	doc := textDoc("Saudi Arabia declared Shawwal 1, 1438 to be on Sunday, June 25, 2017.")
	assert.Empty(t, NewDeclaration().Extract(doc).Candidates)
}

func TestSplitCountries(t *testing.T) {
	assert.Equal(t, []string{"Egypt", "Jordan", "Libya", "Morocco"},
		SplitCountries("Egypt, Jordan & Libya and Morocco"))
	assert.Equal(t, []string{"Turkey"}, SplitCountries("Turkey"))
}

const officialPage = `<html><head><title>Shawwal</title><script>var x = "1. Saudi Arabia";</script></head>
<body>
<div>Home | Calendar</div>
<p>Moonsighting for Shawwal 1438</p>
<p>OFFICIAL 1st Day of Shawwal, 1438 in Different Countries</p>
<p>June 25, 2017 (Sunday):</p>
<p>1. Saudi Arabia (Local Sighting)</p>
<p>2. Pakistan</p>
<p>Pending</p>
<p>3. Morocco</p>
<p>June 26, 2017 (Monday):</p>
<p>4. Egypt</p>
<p>Sighting Reports</p>
<p>5. Jordan (Local Sighting)</p>
</body></html>`

func TestCountryListOfficialSection(t *testing.T) {
	doc, err := NewDocument(model.DocumentKey{Year: 1438, Month: 10}, []byte(officialPage))
	require.NoError(t, err)

	res := NewCountryList().Extract(doc)
	require.Len(t, res.Candidates, 3)

	sa := res.Candidates[0]
	assert.Equal(t, "sa", sa.CountryID)
	assert.Equal(t, "Local Sighting", sa.StatusRaw)
	assert.Equal(t, model.StatusSightingConfirmed, sa.Status)
	assert.Equal(t, "2017-06-25", sa.GregorianDate.String())

	// Pakistan is pending and absorbs the placeholder line
	ma := res.Candidates[1]
	assert.Equal(t, "ma", ma.CountryID)
	assert.Equal(t, officialListStatus, ma.StatusRaw)
	assert.Equal(t, model.StatusOfficialDeclaration, ma.Status)
	assert.Equal(t, "2017-06-25", ma.GregorianDate.String())

	eg := res.Candidates[2]
	assert.Equal(t, "eg", eg.CountryID)
	assert.Equal(t, "2017-06-26", eg.GregorianDate.String())
}

func TestCountryListTwoLineBlock(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 SHW - Shawwal (month 10)",
		"OFFICIAL 1st Day of Shawwal",
		"June 25, 2017 (Sunday):",
		"1. Jordan",
		"June 26 (Monday)",
		"2. Libya",
		"Monday, June 26, 2017",
		"Turkey (Calculations)",
	)

	res := NewCountryList().Extract(doc)
	require.Len(t, res.Candidates, 3)

	jo := res.Candidates[0]
	assert.Equal(t, "jo", jo.CountryID)
	assert.Equal(t, "2017-06-25", jo.GregorianDate.String(), "date without year falls back to section date")
	assert.Equal(t, "Declaration: June 26 (Monday)", jo.StatusRaw)

	ly := res.Candidates[1]
	assert.Equal(t, "ly", ly.CountryID)
	assert.Equal(t, "2017-06-26", ly.GregorianDate.String())

	tr := res.Candidates[2]
	assert.Equal(t, "tr", tr.CountryID)
	assert.Equal(t, model.StatusCalculatedCalendar, tr.Status)
}

func TestCountryListNeedsDateAfterHeading(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 SHW - Shawwal (month 10)",
		"June 25, 2017 (Sunday):",
		"OFFICIAL 1st Day of Shawwal",
		"1. Jordan (Local Sighting)",
	)
	assert.Empty(t, NewCountryList().Extract(doc).Candidates)
}

const tablePage = `<html><body>
<p>Moonsighting for Ramadan 1438</p>
<table>
<tr><th>Date</th><th>Country</th></tr>
<tr><td>1st Day of Ramadan</td><td>Country</td></tr>
<tr><td>May 27, 2017 (Saturday)</td><td>Saudi Arabia (Local Sighting)</td></tr>
<tr><td>????</td><td>Pakistan</td></tr>
<tr><td>May 28, 2017</td><td>Egypt - Moon born before sunset</td></tr>
<tr><td>Sometime</td><td>Jordan</td></tr>
</table>
</body></html>`

func TestTableMarkup(t *testing.T) {
	doc, err := NewDocument(model.DocumentKey{Year: 1438, Month: 9}, []byte(tablePage))
	require.NoError(t, err)

	res := NewTable().Extract(doc)
	require.Len(t, res.Candidates, 2)

	assert.Equal(t, "sa", res.Candidates[0].CountryID)
	assert.Equal(t, "2017-05-27", res.Candidates[0].GregorianDate.String())
	assert.Equal(t, "Local Sighting", res.Candidates[0].StatusRaw)
	assert.Equal(t, 9, res.Candidates[0].HijriMonth)

	assert.Equal(t, "eg", res.Candidates[1].CountryID)
	assert.Equal(t, "Moon born before sunset", res.Candidates[1].StatusRaw)
	assert.Equal(t, model.StatusCalculatedCalendar, res.Candidates[1].Status)

	assert.Equal(t, 1, res.Skips[model.SkipUnparseableLine])
}

func TestTablePipeRows(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 RMD - Ramadan (month 9)",
		"| May 27, 2017 (Saturday) | Saudi Arabia (Local Sighting) |",
		"| ???? | Pakistan |",
		"| May 27, 2017 | Turkey (Calculations) |",
	)

	res := NewTable().Extract(doc)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "sa", res.Candidates[0].CountryID)
	assert.Equal(t, "tr", res.Candidates[1].CountryID)
	assert.Equal(t, "1438RMD", res.Candidates[1].DocumentID)
}

func TestPlaceholderProducesNoCandidate(t *testing.T) {
	doc := textDoc(
		"# YEAR 1445 AH",
		"== 1445 RMD - Ramadan (month 9)",
		"| ?? | Morocco |",
		"| Unknown | Egypt |",
	)

	out := NewExtractor(nil).ExtractDocument(doc)
	assert.Empty(t, out.Candidates)
	assert.Zero(t, out.Raw)
}

func TestSightingReports(t *testing.T) {
	doc := textDoc(
		"# YEAR 1445 AH",
		"== 1445 RMD - Ramadan (month 9)",
		"March 10, 2024 (Sunday):",
		"Ahmed Khan from Houston, TX reported:",
		"",
		"Seen",
		"Yusuf Ali (MCW member) Cape Town, South Africa reported:",
		"Not Seen",
		"Someone from Lahore reported:",
		"Clouds everywhere",
	)

	res := NewSightingReport().Extract(doc)
	require.Len(t, res.Candidates, 2)

	us := res.Candidates[0]
	assert.Equal(t, "us", us.CountryID)
	assert.Equal(t, "Houston", us.City)
	assert.Equal(t, "Seen", us.StatusRaw)
	assert.Equal(t, "2024-03-10", us.GregorianDate.String())
	assert.Equal(t, model.StrategySightingReport, us.Strategy)

	za := res.Candidates[1]
	assert.Equal(t, "za", za.CountryID)
	assert.Equal(t, "Cape Town", za.City)
	assert.Equal(t, "Not Seen", za.StatusRaw)
}

func TestSightingReportWithoutDateIsDropped(t *testing.T) {
	doc := textDoc(
		"# YEAR 1445 AH",
		"== 1445 RMD - Ramadan (month 9)",
		"Ahmed Khan from Houston, TX reported:",
		"Seen",
	)

	res := NewSightingReport().Extract(doc)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 1, res.Skips[model.SkipUnparseableLine])
}

func TestDedup(t *testing.T) {
	d := mustDate(t, "2017-06-25")
	in := []model.CandidateRecord{
		{HijriYear: 1438, HijriMonth: 10, CountryID: "sa", GregorianDate: d, Strategy: model.StrategyCountryList},
		{HijriYear: 1438, HijriMonth: 10, CountryID: "sa", GregorianDate: d.AddDays(1), Strategy: model.StrategyTable},
		{HijriYear: 1438, HijriMonth: 10, CountryID: "us", GregorianDate: d, Strategy: model.StrategySightingReport},
		{HijriYear: 1438, HijriMonth: 10, CountryID: "us", GregorianDate: d, Strategy: model.StrategySightingReport},
		{HijriYear: 1438, HijriMonth: 9, CountryID: "sa", GregorianDate: d, Strategy: model.StrategyDeclaration},
	}

	out := Dedup(in)
	require.Len(t, out, 4)
	assert.Equal(t, model.StrategyCountryList, out[0].Strategy)
	assert.Equal(t, model.StrategySightingReport, out[1].Strategy)
	assert.Equal(t, model.StrategySightingReport, out[2].Strategy)
	assert.Equal(t, 9, out[3].HijriMonth)
}

func TestExtractorKeepsStrategyPriority(t *testing.T) {
	doc := textDoc(
		"# YEAR 1438 AH",
		"== 1438 SHW - Shawwal (month 10)",
		"OFFICIAL 1st Day of Shawwal",
		"June 25, 2017 (Sunday):",
		"1. Saudi Arabia (Local Sighting)",
		"| June 26, 2017 | Saudi Arabia (Calculations) |",
		"Saudi Arabia declared Shawwal 1, 1438 to be on Tuesday, June 27, 2017.",
	)

	out := NewExtractor(nil).ExtractDocument(doc)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, model.StrategyCountryList, out.Candidates[0].Strategy)
	assert.Equal(t, "2017-06-25", out.Candidates[0].GregorianDate.String())
	assert.Equal(t, 3, out.Raw)
	assert.Equal(t, 1, out.ByStrategy[model.StrategyCountryList])
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := NewExtractor(r).Strategies()
	assert.Equal(t, model.Strategies, names)

	s, ok := r.Find(model.StrategyTable)
	require.True(t, ok)
	assert.Equal(t, model.StrategyTable, s.Name())

	only := r.Only(model.StrategySightingReport, model.StrategyCountryList)
	assert.Equal(t, []model.Strategy{model.StrategyCountryList, model.StrategySightingReport},
		NewExtractor(only).Strategies())
}

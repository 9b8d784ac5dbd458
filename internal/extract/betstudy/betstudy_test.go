package betstudy_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract/betstudy"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/normalize"
)

const matchURL = "http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/paris-sg-lyon-1234567/"

const lineupTables = `
<table class="info-table">
  <tr><th>#</th><th>Player</th></tr>
  <tr><td class="size23"><strong>1</strong></td><td class="left-align"><img class="flag-ico" alt="Italy"><a href="/p/1" title="Gianluigi Buffon">G. Buffon</a></td></tr>
  <tr><td class="size23"><strong>7</strong></td><td class="left-align"><img class="flag-ico" alt="France"><a href="/p/7" title="Kylian Mbappé">K. Mbappé</a></td></tr>
</table>
<table class="info-table">
  <tr><td class="size23"><strong>1</strong></td><td class="left-align"><img class="flag-ico" alt="Portugal"><a href="/p/9" title="Anthony Lopes">A. Lopes</a></td></tr>
  <tr><td class="size23"><strong>x</strong></td><td class="left-align"><img class="flag-ico" alt="France"><a href="/p/10" title="Nabil Fekir">N. Fekir</a></td></tr>
</table>`

func matchPage(holders string) string {
	return `<html><body>
<div class="player"><h2><a href="/t/psg">Paris SG</a></h2></div>
<div class="player"><h2><a href="/t/lyon">Olympique Lyonnais</a></h2></div>
<em class="date"><span class="timestamp">12.03.2018</span></em>
<div class="info"><strong class="score">2-1</strong></div>
` + holders + `</body></html>`
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func apply(t *testing.T, kind domain.PageKind, url, html string) (extract.Result, error) {
	t.Helper()
	r, err := betstudy.Rules(extract.Options{}).Lookup(kind)
	require.NoError(t, err)
	return r.Apply(parse(t, html), domain.NewRequest(url, kind, domain.EmptyContext()))
}

func TestMatchList(t *testing.T) {
	t.Parallel()

	const html = `<h1>Ligue 1 Results 2017/2018</h1>
<ul class="action-list"><li><a href="/soccer-stats/c/france/ligue-1/d/results/psg-lyon-1/">info</a></li></ul>
<ul class="action-list"><li><a href="http://www.betstudy.com/m/nice-lille-2/">info</a></li><li><a>no href</a></li></ul>`

	res, err := apply(t, domain.MatchList, "http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/2017-2018/", html)
	require.NoError(t, err)
	require.Len(t, res.Requests, 2)

	assert.Equal(t, "http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/psg-lyon-1/", res.Requests[0].URL())
	assert.Equal(t, "http://www.betstudy.com/m/nice-lille-2/", res.Requests[1].URL())
	for _, r := range res.Requests {
		assert.Equal(t, domain.MatchDetail, r.Kind())
		comp, _ := r.Context().String(betstudy.CtxCompetition)
		assert.Equal(t, "ligue-1-results-2017-2018", comp)
	}
}

func TestMatchDetail(t *testing.T) {
	t.Parallel()

	html := matchPage(`
<div class="table-holder"><h2>Match statistics</h2><table class="info-table"></table><table class="info-table"></table></div>
<div class="table-holder"><h2>Lineups and substitutes</h2>` + lineupTables + `</div>`)

	res, err := apply(t, domain.MatchDetail, matchURL, html)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	m := res.Records[0].(domain.MatchRecord)
	assert.Equal(t, 1234567, m.MatchNumber)
	assert.Equal(t, "12.03.2018", m.Date)
	assert.Equal(t, "paris-sg", m.HomeTeam)
	assert.Equal(t, "Paris SG", m.RawHomeTeam)
	assert.Equal(t, "olympique-lyonnais", m.AwayTeam)
	assert.Equal(t, "Olympique Lyonnais", m.RawAwayTeam)
	assert.Equal(t, 2, m.HomeGoals)
	assert.Equal(t, 1, m.AwayGoals)
	assert.Equal(t, matchURL, m.SourceURL)

	require.Len(t, m.HomeLineup, 2)
	assert.Equal(t, domain.LineupEntry{
		RawName:        "Kylian Mbappé",
		DisplayName:    "K. Mbappé",
		NormalizedName: "kylian-mbappe",
		Nationality:    "france",
		ShirtNumber:    7,
	}, m.HomeLineup[1])

	require.Len(t, m.AwayLineup, 1)
	assert.Equal(t, "anthony-lopes", m.AwayLineup[0].NormalizedName)

	require.Len(t, res.RowErrors, 1)
	assert.True(t, errors.Is(res.RowErrors[0], normalize.ErrParse))
	assert.Contains(t, res.RowErrors[0].Error(), "away lineup")
}

func TestMatchDetailAcceptsMisspelledHeading(t *testing.T) {
	t.Parallel()

	html := matchPage(`<div class="table-holder"><h2>Lineups and subsitutes</h2>` + lineupTables + `</div>`)
	res, err := apply(t, domain.MatchDetail, matchURL, html)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestMatchDetailFirstLineupsTableWins(t *testing.T) {
	t.Parallel()

	const second = `<table class="info-table"><tr><td class="size23"><strong>99</strong></td><td class="left-align"><a title="Other">O</a></td></tr></table>
<table class="info-table"></table>`
	html := matchPage(`<div class="table-holder"><h2>Lineups and substitutes</h2>` + lineupTables + `</div>
<div class="table-holder"><h2>Lineups and substitutes</h2>` + second + `</div>`)

	res, err := apply(t, domain.MatchDetail, matchURL, html)
	require.NoError(t, err)
	m := res.Records[0].(domain.MatchRecord)
	require.NotEmpty(t, m.HomeLineup)
	assert.Equal(t, 1, m.HomeLineup[0].ShirtNumber)
}

func TestMatchDetailFailures(t *testing.T) {
	t.Parallel()

	withLineups := `<div class="table-holder"><h2>Lineups and substitutes</h2>` + lineupTables + `</div>`
	tests := []struct {
		name string
		url  string
		html string
	}{
		{
			name: "no lineups table",
			url:  matchURL,
			html: matchPage(`<div class="table-holder"><h2>Head to head</h2></div>`),
		},
		{
			name: "heading in other case",
			url:  matchURL,
			html: matchPage(`<div class="table-holder"><h2>LINEUPS AND SUBSTITUTES</h2>` + lineupTables + `</div>`),
		},
		{
			name: "one lineup table",
			url:  matchURL,
			html: matchPage(`<div class="table-holder"><h2>Lineups and substitutes</h2><table class="info-table"></table></div>`),
		},
		{
			name: "bad score",
			url:  matchURL,
			html: strings.Replace(matchPage(withLineups), "2-1", "postponed", 1),
		},
		{
			name: "no match number",
			url:  "http://www.betstudy.com/results/paris-lyon/",
			html: matchPage(withLineups),
		},
		{
			name: "one team",
			url:  matchURL,
			html: `<div class="player"><h2><a>Paris SG</a></h2></div>` + withLineups,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := apply(t, domain.MatchDetail, tt.url, tt.html)
			require.Error(t, err)
			assert.True(t, errors.Is(err, extract.ErrExtraction))
			assert.Empty(t, res.Records)

			var ee *extract.ExtractionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.url, ee.URL)
		})
	}
}

func TestFixtureList(t *testing.T) {
	t.Parallel()

	const html = `<table>
<tr><th>Date</th><th>Home</th><th>Away</th></tr>
<tr><td>18.08.2018</td><td class="right-align"><a>Arsenal</a></td><td class="left-align"><a>Chelsea</a></td></tr>
<tr><td>19.08.2018</td><td class="right-align"><a>Tottenham Hotspur</a></td><td class="left-align"></td></tr>
<tr><td>19.08.2018</td><td class="right-align"><a>Everton</a></td><td class="left-align"><a>Southampton FC</a></td></tr>
</table>`
	const url = "http://www.betstudy.com/soccer-stats/c/england/premier-league/d/fixtures/"

	res, err := apply(t, domain.FixtureList, url, html)
	require.NoError(t, err)
	assert.Empty(t, res.Requests)
	require.Len(t, res.Records, 2)

	assert.Equal(t, domain.FixtureRecord{
		Date:      "18.08.2018",
		HomeTeam:  "arsenal",
		AwayTeam:  "chelsea",
		SourceURL: url,
	}, res.Records[0])
	assert.Equal(t, "southampton-fc", res.Records[1].(domain.FixtureRecord).AwayTeam)
}

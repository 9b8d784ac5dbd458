package betstudy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/normalize"
)

const (
	matchLinkSelector   = "ul.action-list a"
	listHeadingSelector = "h1"
	nextSelector        = ".pagination a.next"
	teamsSelector       = "div.player h2 a"
	dateSelector        = "em.date span.timestamp"
	scoreSelector       = "div.info strong.score"
	tableHolderSelector = "div.table-holder"
	lineupTableSelector = "table.info-table"
	lineupCellSelector  = "td.left-align"
	shirtSelector       = "td.size23 strong"
	flagSelector        = "img.flag-ico"
	hrefAttr            = "href"
)

// lineupsHeadings title the section holding both lineup tables. The site
// has also served it misspelled, so both spellings are accepted verbatim.
var lineupsHeadings = []string{"Lineups and substitutes", "Lineups and subsitutes"}

var errMissingShirt = errors.New("missing shirt number")

type matchList struct {
	opts extract.Options
}

// Apply follows every match link of a results page.
func (r *matchList) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	var res extract.Result

	ctx := req.Context()
	if heading := extract.Text(doc.Selection, listHeadingSelector); heading != "" && !ctx.Has(CtxCompetition) {
		ctx = ctx.With(CtxCompetition, normalize.Slug(heading))
	}

	doc.Find(matchLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr(hrefAttr)
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		link, err := extract.Resolve(req.URL(), href)
		if err != nil {
			return
		}
		res.Requests = append(res.Requests, domain.NewRequest(link, domain.MatchDetail, ctx))
	})

	if next, ok := extract.Attr(doc.Selection, nextSelector, hrefAttr); ok && r.opts.FollowNext(req) {
		if link, err := extract.Resolve(req.URL(), next); err == nil {
			res.Requests = append(res.Requests, req.Next(link))
		}
	}

	return res, nil
}

type matchDetail struct{}

// Apply builds one match record. Any missing section abandons the page.
func (matchDetail) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	page := doc.Selection

	teams := page.Find(teamsSelector)
	if teams.Length() != 2 {
		return extract.Result{}, extract.Failf(req, "expected 2 teams, found %d", teams.Length())
	}
	home := normalize.Text(teams.Eq(0).Text())
	away := normalize.Text(teams.Eq(1).Text())

	number, err := matchNumber(req.URL())
	if err != nil {
		return extract.Result{}, extract.Wrap(req, "match number", err)
	}

	homeGoals, awayGoals, err := score(extract.Text(page, scoreSelector))
	if err != nil {
		return extract.Result{}, extract.Wrap(req, "score", err)
	}

	lineups := lineupsSection(page)
	if lineups == nil {
		return extract.Result{}, extract.Failf(req, "lineups table not found")
	}
	tables := lineups.Find(lineupTableSelector)
	if tables.Length() < 2 {
		return extract.Result{}, extract.Failf(req, "expected 2 lineup tables, found %d", tables.Length())
	}

	var res extract.Result
	homeLineup, homeErrs := lineup(tables.Eq(0), "home")
	awayLineup, awayErrs := lineup(tables.Eq(1), "away")
	res.RowErrors = append(homeErrs, awayErrs...)

	res.Records = []domain.Record{domain.MatchRecord{
		MatchNumber: number,
		Date:        extract.Text(page, dateSelector),
		HomeTeam:    normalize.Slug(home),
		RawHomeTeam: home,
		AwayTeam:    normalize.Slug(away),
		RawAwayTeam: away,
		HomeGoals:   homeGoals,
		AwayGoals:   awayGoals,
		HomeLineup:  homeLineup,
		AwayLineup:  awayLineup,
		SourceURL:   req.URL(),
	}}
	return res, nil
}

// lineupsSection returns the first table holder titled with the lineups heading.
func lineupsSection(page *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	page.Find(tableHolderSelector).EachWithBreak(func(_ int, holder *goquery.Selection) bool {
		title := extract.Text(holder, "h2")
		for _, h := range lineupsHeadings {
			if title == h {
				found = holder
				return false
			}
		}
		return true
	})
	return found
}

func lineup(table *goquery.Selection, side string) ([]domain.LineupEntry, []error) {
	var (
		entries []domain.LineupEntry
		errs    []error
	)
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cell := row.Find(lineupCellSelector)
		link := cell.Find("a").First()
		if link.Length() == 0 {
			return
		}
		raw := normalize.Text(link.AttrOr("title", ""))
		display := normalize.Text(link.Text())
		if raw == "" {
			raw = display
		}

		shirtText := extract.Text(row, shirtSelector)
		if shirtText == "" {
			errs = append(errs, &extract.RowError{Row: i + 1, Err: fmt.Errorf("%s lineup: %w", side, errMissingShirt)})
			return
		}
		shirt, err := normalize.ToIntField("shirt_number", shirtText)
		if err != nil {
			errs = append(errs, &extract.RowError{Row: i + 1, Err: fmt.Errorf("%s lineup: %w", side, err)})
			return
		}
		nationality, _ := extract.Attr(cell, flagSelector, "alt")

		entries = append(entries, domain.LineupEntry{
			RawName:        raw,
			DisplayName:    display,
			NormalizedName: normalize.Slug(raw),
			Nationality:    normalize.Slug(nationality),
			ShirtNumber:    shirt,
		})
	})
	return entries, errs
}

// matchNumber reads the numeric id after the last "-" of the URL path,
// e.g. /results/psg-lyon-1234567/ -> 1234567.
func matchNumber(pageURL string) (int, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return 0, fmt.Errorf("parse url: %w", err)
	}
	p := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndex(p, "-"); i >= 0 {
		p = p[i+1:]
	}
	return normalize.ToIntField("match_number", p)
}

// score splits "2-1" (or "2:1") into home and away goals.
func score(text string) (int, int, error) {
	sep := "-"
	if !strings.Contains(text, sep) {
		sep = ":"
	}
	parts := strings.Split(text, sep)
	if len(parts) != 2 {
		return 0, 0, &normalize.ParseError{Field: "score", Value: text, Err: errors.New("expected two goal counts")}
	}
	home, err := normalize.ToIntField("home_goals", parts[0])
	if err != nil {
		return 0, 0, err
	}
	away, err := normalize.ToIntField("away_goals", parts[1])
	if err != nil {
		return 0, 0, err
	}
	return home, away, nil
}

package fifaindex

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/normalize"
)

const (
	teamLinkCellSelector = "td a"
	teamPathFragment     = "/team/"
	teamNextSelector     = "li.next a"
	teamHeadingSelector  = ".media-heading"
	rosterRowSelector    = "table tbody tr"
)

// Roster table columns, zero-based.
const (
	colNumber      = 0
	colNationality = 3
	colRating      = 4
	colName        = 5
	colPosition    = 6
)

var errMissingName = errors.New("missing player name")

type teamList struct {
	opts extract.Options
}

// Apply follows each team link and the next listing page.
func (r *teamList) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	var res extract.Result

	doc.Find(teamLinkCellSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr(hrefAttr)
		if !ok || !strings.Contains(href, teamPathFragment) {
			return
		}
		link, err := extract.Resolve(req.URL(), href)
		if err != nil {
			return
		}
		ctx := req.Context()
		if text := normalize.Text(a.Text()); text != "" {
			ctx = ctx.With(CtxTeamLink, text)
		}
		res.Requests = append(res.Requests, domain.NewRequest(link, domain.TeamDetail, ctx))
	})

	if next, ok := extract.Attr(doc.Selection, teamNextSelector, hrefAttr); ok && r.opts.FollowNext(req) {
		if link, err := extract.Resolve(req.URL(), next); err == nil {
			res.Requests = append(res.Requests, req.Next(link))
		}
	}

	return res, nil
}

type teamDetail struct{}

// Apply emits one roster entry per squad row. A row with an unparseable
// number or rating is reported in RowErrors and skipped.
func (teamDetail) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	rawTeam, ok := req.Context().String(CtxTeam)
	if !ok || strings.TrimSpace(rawTeam) == "" {
		rawTeam = extract.Text(doc.Selection, teamHeadingSelector)
	}
	if rawTeam == "" {
		return extract.Result{}, extract.Failf(req, "team heading not found")
	}
	team := normalize.Slug(rawTeam)

	var res extract.Result
	doc.Find(rosterRowSelector).Each(func(i int, row *goquery.Selection) {
		entry, err := rosterEntry(row.ChildrenFiltered("td"))
		if err != nil {
			res.RowErrors = append(res.RowErrors, &extract.RowError{Row: i + 1, Err: err})
			return
		}
		entry.Team = team
		entry.SourceURL = req.URL()
		res.Records = append(res.Records, entry)
	})

	return res, nil
}

func rosterEntry(cells *goquery.Selection) (domain.TeamRosterEntry, error) {
	name, ok := extract.Attr(cells.Eq(colName), "a", titleAttr)
	if !ok {
		return domain.TeamRosterEntry{}, errMissingName
	}
	number, err := normalize.ToIntField("number", cells.Eq(colNumber).Text())
	if err != nil {
		return domain.TeamRosterEntry{}, err
	}
	rating, err := normalize.ToIntField("rating", extract.Text(cells.Eq(colRating), "span"))
	if err != nil {
		return domain.TeamRosterEntry{}, err
	}
	nationality, _ := extract.Attr(cells.Eq(colNationality), "img", titleAttr)

	return domain.TeamRosterEntry{
		Name:        normalize.Slug(name),
		Position:    extract.Text(cells.Eq(colPosition), "a span"),
		Rating:      rating,
		Number:      number,
		Nationality: normalize.Slug(nationality),
	}, nil
}

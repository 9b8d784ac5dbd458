package fifaindex

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/normalize"
)

const (
	playerRowSelector   = "tr"
	playerLinkSelector  = "figure.player a"
	rowTeamSelector     = "a.link-team"
	paginationSelector  = ".pagination a.page-link"
	nextPageLabel       = "Next"
	playerPathFragment  = "/player/"
	playerNameSelector  = "img.player"
	teamBlockSelector   = "div.team"
	teamLinkSelector    = "a.link-team"
	kitNumberSelector   = "span.float-right"
	positionSelector    = "a.link-position"
	ratingSelector      = ".card-header span.rating"
	nationalitySelector = "a.link-nation"
	titleAttr           = "title"
	hrefAttr            = "href"
)

type playerList struct {
	opts extract.Options
}

// Apply follows every player row that shows a team, carrying the team name
// to the detail page.
func (r *playerList) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	var res extract.Result

	doc.Find(playerRowSelector).Each(func(_ int, row *goquery.Selection) {
		href, ok := extract.Attr(row, playerLinkSelector, hrefAttr)
		if !ok || !strings.Contains(href, playerPathFragment) {
			return
		}
		team, ok := extract.Attr(row, rowTeamSelector, titleAttr)
		if !ok {
			return
		}
		link, err := extract.Resolve(req.URL(), href)
		if err != nil {
			return
		}
		ctx := req.Context().Merge(map[string]string{CtxTeam: team})
		res.Requests = append(res.Requests, domain.NewRequest(link, domain.PlayerDetail, ctx))
	})

	if next, ok := nextPageLink(doc); ok && r.opts.FollowNext(req) {
		link, err := extract.Resolve(req.URL(), next)
		if err == nil {
			res.Requests = append(res.Requests, req.Next(link))
		}
	}

	return res, nil
}

func nextPageLink(doc *goquery.Document) (string, bool) {
	var href string
	doc.Find(paginationSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), nextPageLabel) {
			return true
		}
		v, ok := a.Attr(hrefAttr)
		if ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return href, href != ""
}

type playerDetail struct{}

// Apply builds the player's record. The team carried in the request context
// takes precedence over the first team block on the page.
func (playerDetail) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	page := doc.Selection

	rawName, ok := extract.Attr(page, playerNameSelector, titleAttr)
	if !ok {
		return extract.Result{}, extract.Failf(req, "player name not found")
	}

	teamBlock := page.Find(teamBlockSelector)
	rawTeam, ok := req.Context().String(CtxTeam)
	if !ok || strings.TrimSpace(rawTeam) == "" {
		rawTeam, ok = extract.Attr(teamBlock, teamLinkSelector, titleAttr)
		if !ok {
			return extract.Result{}, extract.Failf(req, "team not found")
		}
	}

	rating, err := normalize.ToIntField("rating", extract.Text(page, ratingSelector))
	if err != nil {
		return extract.Result{}, extract.Wrap(req, "rating", err)
	}

	var kit *int
	if n, err := normalize.ToIntField("kit_number", extract.Text(teamBlock, kitNumberSelector)); err == nil {
		kit = &n
	}

	position, _ := extract.Attr(teamBlock, positionSelector, titleAttr)
	nationality, _ := extract.Attr(page, nationalitySelector, titleAttr)

	rec := domain.PlayerRecord{
		Name:        normalize.Slug(rawName),
		RawName:     rawName,
		Team:        normalize.Slug(rawTeam),
		RawTeam:     rawTeam,
		Position:    position,
		Rating:      rating,
		KitNumber:   kit,
		Nationality: normalize.Slug(nationality),
		SourceURL:   req.URL(),
	}
	return extract.Result{Records: []domain.Record{rec}}, nil
}

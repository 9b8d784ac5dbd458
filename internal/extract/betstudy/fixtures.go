package betstudy

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/normalize"
)

const (
	homeTeamSelector = "td.right-align a"
	awayTeamSelector = "td.left-align a"
)

type fixtureList struct {
	opts extract.Options
}

// Apply emits a fixture per table row after the header. Rows without both
// teams are skipped.
func (r *fixtureList) Apply(doc *goquery.Document, req domain.Request) (extract.Result, error) {
	var res extract.Result

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		home := extract.Text(row, homeTeamSelector)
		away := extract.Text(row, awayTeamSelector)
		if home == "" || away == "" {
			return
		}
		res.Records = append(res.Records, domain.FixtureRecord{
			Date:      normalize.Text(row.Find("td").First().Text()),
			HomeTeam:  normalize.Slug(home),
			AwayTeam:  normalize.Slug(away),
			SourceURL: req.URL(),
		})
	})

	if next, ok := extract.Attr(doc.Selection, nextSelector, hrefAttr); ok && r.opts.FollowNext(req) {
		if link, err := extract.Resolve(req.URL(), next); err == nil {
			res.Requests = append(res.Requests, req.Next(link))
		}
	}

	return res, nil
}

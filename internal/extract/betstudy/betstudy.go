// Package betstudy extracts match results, lineups and fixtures from betstudy.com pages.
package betstudy

import (
	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
)

// Site is the name jobs use to select these rules.
const Site = "betstudy"

// CtxCompetition is the slug of the competition a match listing belongs to.
const CtxCompetition = "competition"

// Rules returns the registry for every betstudy page kind.
func Rules(opts extract.Options) *extract.Registry {
	return extract.NewRegistry().
		MustRegister(domain.MatchList, &matchList{opts: opts}).
		MustRegister(domain.MatchDetail, matchDetail{}).
		MustRegister(domain.FixtureList, &fixtureList{opts: opts})
}

// Package fifaindex extracts player and team ratings from fifaindex.com pages.
package fifaindex

import (
	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
)

// Site is the name jobs use to select these rules.
const Site = "fifaindex"

// Context keys set by listing rules.
const (
	// CtxTeam is the raw team name shown next to a player on a listing row.
	CtxTeam = "team"
	// CtxTeamLink is the anchor text of a team listing link.
	CtxTeamLink = "team_link_text"
)

// Rules returns the registry for every fifaindex page kind.
func Rules(opts extract.Options) *extract.Registry {
	return extract.NewRegistry().
		MustRegister(domain.PlayerList, &playerList{opts: opts}).
		MustRegister(domain.PlayerDetail, playerDetail{}).
		MustRegister(domain.TeamList, &teamList{opts: opts}).
		MustRegister(domain.TeamDetail, teamDetail{})
}

// Package domain holds the crawl data model: page kinds, requests, contexts and records.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// PageKind identifies which extraction rule handles a page.
type PageKind int

const (
	PageKindUnknown PageKind = iota
	PlayerList
	PlayerDetail
	TeamList
	TeamDetail
	MatchList
	MatchDetail
	FixtureList
)

// ErrUnknownPageKind is returned by ParsePageKind for unrecognised names.
var ErrUnknownPageKind = errors.New("unknown page kind")

var pageKindNames = map[PageKind]string{
	PlayerList:   "player_list",
	PlayerDetail: "player_detail",
	TeamList:     "team_list",
	TeamDetail:   "team_detail",
	MatchList:    "match_list",
	MatchDetail:  "match_detail",
	FixtureList:  "fixture_list",
}

func (k PageKind) String() string {
	if name, ok := pageKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsListing reports whether pages of this kind paginate.
func (k PageKind) IsListing() bool {
	switch k {
	case PlayerList, TeamList, MatchList, FixtureList:
		return true
	default:
		return false
	}
}

// ParsePageKind maps a config name such as "player_list" to its PageKind.
func ParsePageKind(s string) (PageKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range pageKindNames {
		if n == name {
			return k, nil
		}
	}
	return PageKindUnknown, fmt.Errorf("%w: %q", ErrUnknownPageKind, s)
}

// PageKinds returns every known kind in declaration order.
func PageKinds() []PageKind {
	return []PageKind{PlayerList, PlayerDetail, TeamList, TeamDetail, MatchList, MatchDetail, FixtureList}
}

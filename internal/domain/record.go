package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RecordKind names a Record variant. It is the "kind" of the serialized envelope.
type RecordKind string

const (
	KindPlayer     RecordKind = "player"
	KindTeamRoster RecordKind = "team_roster_entry"
	KindMatch      RecordKind = "match"
	KindFixture    RecordKind = "fixture"
)

func (k RecordKind) String() string { return string(k) }

// RecordKinds returns every variant name.
func RecordKinds() []RecordKind {
	return []RecordKind{KindPlayer, KindTeamRoster, KindMatch, KindFixture}
}

// Record is one extracted fact. Implementations are value types and are
// never modified after extraction.
type Record interface {
	RecordKind() RecordKind
	Source() string
}

// PlayerRecord is a player's attributes from a player detail page.
type PlayerRecord struct {
	Name        string `json:"name"`
	RawName     string `json:"raw_name"`
	Team        string `json:"team"`
	RawTeam     string `json:"raw_team"`
	Position    string `json:"position"`
	Rating      int    `json:"rating"`
	KitNumber   *int   `json:"kit_number"`
	Nationality string `json:"nationality"`
	SourceURL   string `json:"source_url"`
}

func (PlayerRecord) RecordKind() RecordKind { return KindPlayer }
func (r PlayerRecord) Source() string { return r.SourceURL }

// TeamRosterEntry is one row of a team's squad table.
type TeamRosterEntry struct {
	Name        string `json:"name"`
	Team        string `json:"team"`
	Position    string `json:"position"`
	Rating      int    `json:"rating"`
	Number      int    `json:"number"`
	Nationality string `json:"nationality"`
	SourceURL   string `json:"source_url"`
}

func (TeamRosterEntry) RecordKind() RecordKind { return KindTeamRoster }
func (r TeamRosterEntry) Source() string { return r.SourceURL }

// LineupEntry is a player listed in a match lineup.
type LineupEntry struct {
	RawName        string `json:"raw_name"`
	DisplayName    string `json:"display_name"`
	NormalizedName string `json:"normalized_name"`
	Nationality    string `json:"nationality"`
	ShirtNumber    int    `json:"shirt_number"`
}

// MatchRecord is a played match with score and both lineups.
type MatchRecord struct {
	MatchNumber int           `json:"match_number"`
	Date        string        `json:"date"`
	HomeTeam    string        `json:"home_team"`
	RawHomeTeam string        `json:"raw_home_team"`
	AwayTeam    string        `json:"away_team"`
	RawAwayTeam string        `json:"raw_away_team"`
	HomeGoals   int           `json:"home_goals"`
	AwayGoals   int           `json:"away_goals"`
	HomeLineup  []LineupEntry `json:"home_lineup"`
	AwayLineup  []LineupEntry `json:"away_lineup"`
	SourceURL   string        `json:"source_url"`
}

func (MatchRecord) RecordKind() RecordKind { return KindMatch }
func (r MatchRecord) Source() string { return r.SourceURL }

// FixtureRecord is a scheduled match.
type FixtureRecord struct {
	Date      string `json:"date"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	SourceURL string `json:"source_url"`
}

func (FixtureRecord) RecordKind() RecordKind { return KindFixture }
func (r FixtureRecord) Source() string { return r.SourceURL }

// Envelope is the self-describing serialized form of a Record.
type Envelope struct {
	Kind   RecordKind      `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// ErrUnknownRecordKind is returned when decoding an envelope of an unknown kind.
var ErrUnknownRecordKind = errors.New("unknown record kind")

// MarshalRecord encodes r inside an Envelope.
func MarshalRecord(r Record) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", r.RecordKind(), err)
	}
	return json.Marshal(Envelope{Kind: r.RecordKind(), Record: body})
}

// UnmarshalRecord decodes an Envelope back into its Record variant.
func UnmarshalRecord(data []byte) (Record, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var (
		rec Record
		err error
	)
	switch env.Kind {
	case KindPlayer:
		var v PlayerRecord
		err = json.Unmarshal(env.Record, &v)
		rec = v
	case KindTeamRoster:
		var v TeamRosterEntry
		err = json.Unmarshal(env.Record, &v)
		rec = v
	case KindMatch:
		var v MatchRecord
		err = json.Unmarshal(env.Record, &v)
		rec = v
	case KindFixture:
		var v FixtureRecord
		err = json.Unmarshal(env.Record, &v)
		rec = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordKind, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s record: %w", env.Kind, err)
	}
	return rec, nil
}

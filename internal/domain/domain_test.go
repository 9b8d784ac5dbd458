package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

func TestParsePageKind(t *testing.T) {
	t.Parallel()

	for _, k := range domain.PageKinds() {
		got, err := domain.ParsePageKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := domain.ParsePageKind(" Player_List ")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerList, got)

	_, err = domain.ParsePageKind("league_table")
	assert.True(t, errors.Is(err, domain.ErrUnknownPageKind))
}

func TestPageKindIsListing(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.PlayerList.IsListing())
	assert.True(t, domain.FixtureList.IsListing())
	assert.False(t, domain.PlayerDetail.IsListing())
	assert.False(t, domain.MatchDetail.IsListing())
}

func TestContextDerivationLeavesParentUntouched(t *testing.T) {
	t.Parallel()

	parent := domain.EmptyContext().With("league", "ligue-1")
	a := parent.With("team", "psg")
	b := parent.Merge(map[string]string{"team": "lyon", "league": "l1"})

	assert.False(t, parent.Has("team"))
	assert.Equal(t, []string{"league"}, parent.Keys())

	team, ok := a.String("team")
	require.True(t, ok)
	assert.Equal(t, "psg", team)
	league, _ := a.String("league")
	assert.Equal(t, "ligue-1", league)

	team, _ = b.String("team")
	assert.Equal(t, "lyon", team)
	league, _ = b.String("league")
	assert.Equal(t, "l1", league)
}

func TestContextScalars(t *testing.T) {
	t.Parallel()

	c := domain.EmptyContext().WithInt("season", 2018).With("round", "12").With("name", "x")

	n, ok := c.Int("season")
	require.True(t, ok)
	assert.Equal(t, 2018, n)

	s, ok := c.String("season")
	require.True(t, ok)
	assert.Equal(t, "2018", s)

	n, ok = c.Int("round")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = c.Int("name")
	assert.False(t, ok)
	_, ok = c.String("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, c.Len())
}

func TestRequestNext(t *testing.T) {
	t.Parallel()

	ctx := domain.EmptyContext().With("team", "arsenal")
	r := domain.NewRequest("https://x/players/", domain.PlayerList, ctx)
	next := r.Next("https://x/players/2/")

	assert.Equal(t, domain.FirstPage, r.Page())
	assert.Equal(t, 2, next.Page())
	assert.Equal(t, domain.PlayerList, next.Kind())
	assert.Equal(t, "https://x/players/", r.URL())
	team, _ := next.Context().String("team")
	assert.Equal(t, "arsenal", team)
}

func TestRecordEnvelope(t *testing.T) {
	t.Parallel()

	kit := 10
	records := []domain.Record{
		domain.PlayerRecord{Name: "neymar-jr", RawName: "Neymar Jr", Rating: 92, KitNumber: &kit, SourceURL: "u1"},
		domain.TeamRosterEntry{Name: "n", Team: "t", Number: 4, SourceURL: "u2"},
		domain.MatchRecord{MatchNumber: 7, HomeLineup: []domain.LineupEntry{{RawName: "A", ShirtNumber: 1}}, SourceURL: "u3"},
		domain.FixtureRecord{HomeTeam: "h", AwayTeam: "a", SourceURL: "u4"},
	}

	for _, rec := range records {
		data, err := domain.MarshalRecord(rec)
		require.NoError(t, err)

		var env map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &env))
		assert.JSONEq(t, `"`+rec.RecordKind().String()+`"`, string(env["kind"]))

		back, err := domain.UnmarshalRecord(data)
		require.NoError(t, err)
		assert.Equal(t, rec, back)
		assert.Equal(t, rec.Source(), back.Source())
	}
}

func TestPlayerRecordFieldNames(t *testing.T) {
	t.Parallel()

	data, err := domain.MarshalRecord(domain.PlayerRecord{Name: "a", Rating: 87})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kit_number":null`)
	assert.Contains(t, string(data), `"rating":87`)
	assert.Contains(t, string(data), `"source_url":""`)
}

func TestUnmarshalUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := domain.UnmarshalRecord([]byte(`{"kind":"league","record":{}}`))
	assert.True(t, errors.Is(err, domain.ErrUnknownRecordKind))
}

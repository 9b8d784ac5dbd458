package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/frontier"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/scheduler"
)

// CronParser parses job schedules: minute hour day-of-month month day-of-week.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Seed is one starting page of a job.
type Seed struct {
	URL  string `mapstructure:"url" yaml:"url"`
	Kind string `mapstructure:"kind" yaml:"kind"`
}

// Job is one logical crawl over a single site. Zero limits inherit the
// scheduler section.
type Job struct {
	Name           string        `mapstructure:"name" yaml:"name"`
	Site           string        `mapstructure:"site" yaml:"site"`
	Description    string        `mapstructure:"description" yaml:"description"`
	Schedule       string        `mapstructure:"schedule" yaml:"schedule"`
	MaxPages       int           `mapstructure:"max_pages" yaml:"max_pages"`
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	MaxRequests    int           `mapstructure:"max_requests" yaml:"max_requests"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Seeds          []Seed        `mapstructure:"seeds" yaml:"seeds"`
}

// Validate checks the job's own settings. Site names are resolved by the
// job runner, which owns the rule sets.
func (j Job) Validate() error {
	if j.Name == "" {
		return invalid("jobs.name", j.Name, "job name is required")
	}
	field := func(name string) string { return fmt.Sprintf("jobs[%s].%s", j.Name, name) }

	if j.Site == "" {
		return invalid(field("site"), j.Site, "site is required")
	}
	if len(j.Seeds) == 0 {
		return invalid(field("seeds"), nil, "at least one seed is required")
	}
	if j.MaxPages < 0 {
		return invalid(field("max_pages"), j.MaxPages, "cannot be negative")
	}
	if j.Concurrency < 0 || j.Concurrency > scheduler.MaxConcurrency {
		return invalid(field("concurrency"), j.Concurrency, "must be between 1 and %d", scheduler.MaxConcurrency)
	}
	if j.MaxRequests < 0 {
		return invalid(field("max_requests"), j.MaxRequests, "cannot be negative")
	}
	if j.RequestTimeout < 0 {
		return invalid(field("request_timeout"), j.RequestTimeout, "cannot be negative")
	}
	if j.Schedule != "" {
		if _, err := CronParser.Parse(j.Schedule); err != nil {
			return invalid(field("schedule"), j.Schedule, "%v", err)
		}
	}

	for i, seed := range j.Seeds {
		if _, err := domain.ParsePageKind(seed.Kind); err != nil {
			return invalid(fmt.Sprintf("%s[%d].kind", field("seeds"), i), seed.Kind, "%v", err)
		}
		if _, err := frontier.Canonicalize(seed.URL); err != nil {
			return invalid(fmt.Sprintf("%s[%d].url", field("seeds"), i), seed.URL, "%v", err)
		}
	}
	return nil
}

// Requests turns the seeds into first-page requests with empty contexts.
func (j Job) Requests() ([]domain.Request, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	reqs := make([]domain.Request, 0, len(j.Seeds))
	for _, seed := range j.Seeds {
		kind, _ := domain.ParsePageKind(seed.Kind)
		reqs = append(reqs, domain.NewRequest(seed.URL, kind, domain.EmptyContext()))
	}
	return reqs, nil
}

// SchedulerConfig returns base with the job's non-zero limits applied.
func (j Job) SchedulerConfig(base scheduler.Config) scheduler.Config {
	if j.Concurrency > 0 {
		base.Concurrency = j.Concurrency
	}
	if j.MaxPages > 0 {
		base.MaxPages = j.MaxPages
	}
	if j.MaxRequests > 0 {
		base.MaxRequests = j.MaxRequests
	}
	if j.RequestTimeout > 0 {
		base.RequestTimeout = j.RequestTimeout
	}
	return base
}

// DefaultJobs are used when the configuration defines no jobs. They cover
// player ratings, team rosters, Ligue 1 results and Premier League fixtures.
func DefaultJobs() []Job {
	return []Job{
		{
			Name:        "players",
			Site:        "fifaindex",
			Description: "Player ratings from the FIFA 13 to FIFA 19 databases",
			Seeds: seeds(domain.PlayerList,
				"https://www.fifaindex.com/players/fifa19",
				"https://www.fifaindex.com/players/fifa18/",
				"https://www.fifaindex.com/players/fifa17/",
				"https://www.fifaindex.com/players/fifa16/",
				"https://www.fifaindex.com/players/fifa15/",
				"https://www.fifaindex.com/players/fifa14/",
				"https://www.fifaindex.com/players/fifa13/",
			),
		},
		{
			Name:        "teams",
			Site:        "fifaindex",
			Description: "Team rosters",
			MaxPages:    10,
			Seeds: seeds(domain.TeamList,
				"https://www.fifaindex.com/teams/",
				"https://www.fifaindex.com/teams/fifa17_173/",
				"https://www.fifaindex.com/teams/fifa16_73/",
				"https://www.fifaindex.com/teams/fifa15_14/",
				"https://www.fifaindex.com/teams/fifa14_13/",
			),
		},
		{
			Name:        "matches",
			Site:        "betstudy",
			Description: "Ligue 1 results and lineups, 2013-2014 to 2017-2018",
			Seeds: seeds(domain.MatchList,
				"http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/2017-2018/",
				"http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/2016-2017/",
				"http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/2015-2016/",
				"http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/2014-2015/",
				"http://www.betstudy.com/soccer-stats/c/france/ligue-1/d/results/2013-2014/",
			),
		},
		{
			Name:        "fixtures",
			Site:        "betstudy",
			Description: "Upcoming Premier League fixtures",
			Schedule:    "0 6 * * *",
			Seeds: seeds(domain.FixtureList,
				"http://www.betstudy.com/soccer-stats/c/england/premier-league/d/fixtures/",
			),
		},
	}
}

func seeds(kind domain.PageKind, urls ...string) []Seed {
	out := make([]Seed, 0, len(urls))
	for _, u := range urls {
		out = append(out, Seed{URL: u, Kind: kind.String()})
	}
	return out
}

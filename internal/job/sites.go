package job

import (
	"fmt"
	"sort"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract/betstudy"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/extract/fifaindex"
)

// RuleSet builds the extraction rules of one site.
type RuleSet func(opts extract.Options) *extract.Registry

var sites = map[string]RuleSet{
	fifaindex.Site: fifaindex.Rules,
	betstudy.Site:  betstudy.Rules,
}

// Sites lists the supported site names.
func Sites() []string {
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rules returns the rule registry of site. An unknown site is a config error.
func Rules(site string, opts extract.Options) (*extract.Registry, error) {
	build, ok := sites[site]
	if !ok {
		return nil, &config.ConfigError{Field: "site", Value: site, Reason: "unknown site"}
	}
	return build(opts), nil
}

// checkSeedKinds makes sure every seed has a rule on the job's site.
func checkSeedKinds(j config.Job, rules *extract.Registry) error {
	reqs, err := j.Requests()
	if err != nil {
		return err
	}
	for i, req := range reqs {
		if _, err := rules.Lookup(req.Kind()); err != nil {
			return &config.ConfigError{
				Field:  fmt.Sprintf("jobs[%s].seeds[%d].kind", j.Name, i),
				Value:  req.Kind().String(),
				Reason: fmt.Sprintf("site %s has no rule for this page kind", j.Site),
			}
		}
	}
	return nil
}

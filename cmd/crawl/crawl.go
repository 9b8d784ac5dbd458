// Package crawl implements the crawl command.
package crawl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/statcrawl/cmd/common"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/job"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

// adHocJobName names the job built from --site and --seed.
const adHocJobName = "ad-hoc"

type options struct {
	concurrency int
	maxPages    int
	maxRequests int
	sinks       []string
	site        string
	seeds       []string
}

// Command returns the crawl command.
func Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "crawl [job...]",
		Short: "Run crawl jobs",
		Long: `Run the named jobs one after the other, or every configured job when
none is named. Records go to the configured sinks; a summary table is written
to stderr when the crawl ends.

An ad-hoc crawl can be started without configuring a job:

  statcrawl crawl --site fifaindex --seed player_list=https://www.fifaindex.com/players/fifa19`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.concurrency, "concurrency", 0, "requests in flight (overrides scheduler.concurrency)")
	flags.IntVar(&opts.maxPages, "max-pages", 0, "highest listing page to follow (overrides scheduler.max_pages)")
	flags.IntVar(&opts.maxRequests, "max-requests", 0, "stop enqueuing after this many requests")
	flags.StringSliceVar(&opts.sinks, "sink", nil, "record sinks: stdout, file, postgres, elasticsearch")
	flags.StringVar(&opts.site, "site", "", "site of the ad-hoc job")
	flags.StringArrayVar(&opts.seeds, "seed", nil, "ad-hoc seed as page_kind=url, repeatable")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	cfg, log, err := common.Load()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := opts.apply(cfg); err != nil {
		return err
	}

	runner, err := job.NewRunner(cfg, log)
	if err != nil {
		return err
	}

	var results []job.Result
	var runErr error
	if opts.site != "" || len(opts.seeds) > 0 {
		adHoc, buildErr := opts.adHocJob()
		if buildErr != nil {
			return buildErr
		}
		res, err := runner.RunJob(cmd.Context(), adHoc)
		if errors.Is(err, config.ErrConfig) {
			return err
		}
		results, runErr = []job.Result{res}, err
	} else {
		results, runErr = runner.Run(cmd.Context(), args...)
	}

	job.RenderResults(cmd.ErrOrStderr(), results)
	if runErr != nil {
		log.Error("Crawl did not complete", logger.Error(runErr))
	}
	return runErr
}

// apply copies flag overrides into cfg and revalidates it.
func (o options) apply(cfg *config.Config) error {
	if o.concurrency > 0 {
		cfg.Scheduler.Concurrency = o.concurrency
	}
	if o.maxPages > 0 {
		cfg.Scheduler.MaxPages = o.maxPages
	}
	if o.maxRequests > 0 {
		cfg.Scheduler.MaxRequests = o.maxRequests
	}
	if len(o.sinks) > 0 {
		cfg.Sink.Types = o.sinks
	}
	return cfg.Validate()
}

func (o options) adHocJob() (config.Job, error) {
	if o.site == "" || len(o.seeds) == 0 {
		return config.Job{}, errors.New("--site and at least one --seed are required together")
	}

	j := config.Job{Name: adHocJobName, Site: o.site}
	for _, raw := range o.seeds {
		kind, url, ok := strings.Cut(raw, "=")
		if !ok {
			return config.Job{}, fmt.Errorf("seed %q: want page_kind=url", raw)
		}
		j.Seeds = append(j.Seeds, config.Seed{Kind: strings.TrimSpace(kind), URL: strings.TrimSpace(url)})
	}
	return j, nil
}

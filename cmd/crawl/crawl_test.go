package crawl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

func TestAdHocJob(t *testing.T) {
	t.Parallel()

	opts := options{
		site:  "betstudy",
		seeds: []string{"fixture_list=http://www.betstudy.com/soccer-stats/c/england/premier-league/d/fixtures/"},
	}
	j, err := opts.adHocJob()
	require.NoError(t, err)

	assert.Equal(t, adHocJobName, j.Name)
	require.Len(t, j.Seeds, 1)
	assert.Equal(t, "fixture_list", j.Seeds[0].Kind)
	require.NoError(t, j.Validate())
}

func TestAdHocJobRejectsMalformedSeeds(t *testing.T) {
	t.Parallel()

	_, err := options{site: "betstudy", seeds: []string{"http://example.com"}}.adHocJob()
	require.Error(t, err)

	_, err = options{seeds: []string{"team_list=http://example.com"}}.adHocJob()
	require.Error(t, err)
}

func TestApplyOverridesAndRevalidates(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Logger:    validLogger(),
		Scheduler: config.SchedulerConfig{Concurrency: 4, RequestTimeout: time.Second, MaxPages: 10},
		Dedup:     config.DedupConfig{Backend: config.DedupMemory},
		Sink:      config.SinkConfig{Types: []string{"stdout"}},
		Jobs:      config.DefaultJobs(),
	}
	cfg.Retry.MaxAttempts = 3

	require.NoError(t, options{concurrency: 8, maxPages: 2}.apply(cfg))
	assert.Equal(t, 8, cfg.Scheduler.Concurrency)
	assert.Equal(t, 2, cfg.Scheduler.MaxPages)

	err := options{sinks: []string{"postgres"}}.apply(cfg)
	require.ErrorIs(t, err, config.ErrConfig)
}

func validLogger() logger.Config {
	cfg := logger.Config{}
	cfg.SetDefaults()
	return cfg
}

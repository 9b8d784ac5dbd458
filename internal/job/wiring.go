package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/frontier"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/sink"
)

// SinkFactory opens the record destination of one run.
type SinkFactory func(ctx context.Context, runID string) (sink.Sink, error)

// SeenFactory opens the seen-set of one run. release is called once the run
// is over.
type SeenFactory func(ctx context.Context, runID string) (seen frontier.SeenSet, release func() error, err error)

// ConfiguredSinks opens the sinks named in cfg. stdout receives the stdout sink.
func ConfiguredSinks(cfg config.SinkConfig, stdout io.Writer) SinkFactory {
	return func(ctx context.Context, runID string) (sink.Sink, error) {
		opened := make(sink.Multi, 0, len(cfg.Types))
		for _, t := range cfg.Types {
			s, err := openSink(ctx, strings.TrimSpace(t), cfg, stdout, runID)
			if err != nil {
				return nil, errors.Join(fmt.Errorf("open %s sink: %w", t, err), opened.Close())
			}
			opened = append(opened, s)
		}
		if len(opened) == 1 {
			return opened[0], nil
		}
		return opened, nil
	}
}

func openSink(ctx context.Context, kind string, cfg config.SinkConfig, stdout io.Writer, runID string) (sink.Sink, error) {
	switch kind {
	case sink.TypeStdout:
		return sink.NewJSONLines(stdout), nil
	case sink.TypeFile:
		return sink.NewJSONLinesFile(cfg.Path)
	case sink.TypePostgres:
		db, err := sink.ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pg, err := sink.NewPostgres(ctx, db, runID)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return pg, nil
	case sink.TypeElasticsearch:
		client, err := sink.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			return nil, err
		}
		return sink.NewElasticsearch(client, cfg.Elasticsearch.IndexPrefix, runID), nil
	default:
		return nil, &config.ConfigError{Field: "sink.types", Value: kind, Reason: "unknown sink type"}
	}
}

// ConfiguredSeen returns the seen-set backend selected by cfg.
func ConfiguredSeen(cfg config.DedupConfig, log logger.Logger) SeenFactory {
	if cfg.Backend != config.DedupRedis {
		return MemorySeen
	}
	if log == nil {
		log = logger.NewNop()
	}
	return func(ctx context.Context, runID string) (frontier.SeenSet, func() error, error) {
		client, err := frontier.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return frontier.NewRedisSeen(client, runID, cfg.Redis.TTL, log.With(logger.String("run_id", runID))), client.Close, nil
	}
}

// MemorySeen gives every run a fresh in-process seen-set.
func MemorySeen(context.Context, string) (frontier.SeenSet, func() error, error) {
	return frontier.NewMemorySeen(), func() error { return nil }, nil
}

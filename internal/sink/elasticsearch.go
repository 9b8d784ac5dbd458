package sink

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
)

// DefaultIndexPrefix names the per-kind indices, e.g. statcrawl-player.
const DefaultIndexPrefix = "statcrawl"

// ElasticsearchConfig holds the settings for the Elasticsearch sink.
type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

// Elasticsearch indexes each record as a document in an index per record kind.
type Elasticsearch struct {
	client *es.Client
	prefix string
	runID  string
	now    func() time.Time
}

type indexedRecord struct {
	RunID     string          `json:"run_id"`
	Kind      string          `json:"kind"`
	SourceURL string          `json:"source_url"`
	EmittedAt time.Time       `json:"emitted_at"`
	Record    json.RawMessage `json:"record"`
}

// NewElasticsearchClient builds a client from cfg.
func NewElasticsearchClient(cfg ElasticsearchConfig) (*es.Client, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// NewElasticsearch creates the sink.
func NewElasticsearch(client *es.Client, prefix, runID string) *Elasticsearch {
	if prefix == "" {
		prefix = DefaultIndexPrefix
	}
	return &Elasticsearch{client: client, prefix: prefix, runID: runID, now: time.Now}
}

// Index returns the index records of kind are written to.
func (e *Elasticsearch) Index(kind domain.RecordKind) string {
	return e.prefix + "-" + kind.String()
}

// Emit implements Sink. Document IDs derive from run, kind and content so a
// retried emit overwrites instead of duplicating.
func (e *Elasticsearch) Emit(ctx context.Context, rec domain.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", rec.RecordKind(), err)
	}
	doc, err := json.Marshal(indexedRecord{
		RunID:     e.runID,
		Kind:      rec.RecordKind().String(),
		SourceURL: rec.Source(),
		EmittedAt: e.now().UTC(),
		Record:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	sum := sha256.Sum256(append([]byte(e.runID+"|"+rec.RecordKind().String()+"|"), body...))
	index := e.Index(rec.RecordKind())

	res, err := e.client.Index(
		index,
		bytes.NewReader(doc),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(hex.EncodeToString(sum[:])),
	)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.IsError() {
		return fmt.Errorf("index %s: %s", index, res.String())
	}
	return nil
}

// Close implements Sink. The client holds no resources that need releasing.
func (e *Elasticsearch) Close() error { return nil }

package job

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/domain"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/scheduler"
)

// Result summarizes one job run.
type Result struct {
	Job         string
	Site        string
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Interrupted bool
	Stats       scheduler.Stats
}

// Records returns how many records of kind reached the sink.
func (r Result) Records(kind domain.RecordKind) int64 {
	return r.Stats.Records[kind]
}

// RenderResults writes a summary table of results to w.
func RenderResults(w io.Writer, results []Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"Job", "Run ID", "Records", "Succeeded", "Failed", "Row Errors", "Extraction Errors", "Duration", "Status",
	})

	var total int64
	for _, res := range results {
		status := "completed"
		if res.Interrupted {
			status = "interrupted"
		}
		total += res.Stats.TotalRecords()
		t.AppendRow(table.Row{
			res.Job,
			res.RunID,
			recordBreakdown(res.Stats),
			res.Stats.Succeeded,
			res.Stats.Failed,
			res.Stats.RowErrors,
			res.Stats.ExtractionErrors,
			res.Duration.Round(time.Millisecond),
			status,
		})
	}
	t.AppendFooter(table.Row{"Total", "", total})
	t.Render()
}

func recordBreakdown(stats scheduler.Stats) string {
	parts := make([]string, 0, len(stats.Records))
	for _, kind := range domain.RecordKinds() {
		if n := stats.Records[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}

// RenderJobs writes a table of configured jobs and their seeds to w.
func RenderJobs(w io.Writer, jobs []config.Job) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "Site", "Schedule", "Max Pages", "Seeds", "Description"})
	for _, j := range jobs {
		schedule := j.Schedule
		if schedule == "" {
			schedule = "-"
		}
		seeds := make([]string, 0, len(j.Seeds))
		for _, s := range j.Seeds {
			seeds = append(seeds, s.Kind+" "+s.URL)
		}
		t.AppendRow(table.Row{
			j.Name,
			j.Site,
			schedule,
			j.MaxPages,
			strings.Join(seeds, "\n"),
			j.Description,
		})
	}
	t.Render()
}

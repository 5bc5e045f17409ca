package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/claim"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/logger"
)

// Renderer turns one claim record into a PDF at the given path. Injected so
// tests can force per-claim failures.
type Renderer interface {
	Render(rec *claim.ClaimRecord, path string) error
}

// Options describes one batch run.
type Options struct {
	Legitimate int
	Fraudulent int
	OutputDir  string
	Workers    int

	Generator   *claim.Generator
	LegitPolicy claim.Policy
	FraudPolicy claim.Policy
	Renderer    Renderer

	// Seed makes claim generation reproducible; 0 means random. Each claim
	// gets its own faker derived from the seed, so workers never share a
	// random source.
	Seed uint64

	// RunLog, when set, receives one JSON summary line per run.
	RunLog string

	// Progress enables the console progress bar.
	Progress bool
}

// Summary is the outcome of a batch run, appended to the run log.
type Summary struct {
	RunID      string `json:"run_id"`
	Timestamp  string `json:"timestamp"`
	OutputDir  string `json:"output_dir"`
	Attempted  int    `json:"attempted"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

type task struct {
	kind   claim.Kind
	seq    int
	policy claim.Policy
	file   string
}

// Run generates and renders the requested claims. Each claim is an
// independent unit of work: failures are logged and counted, never fatal to
// the batch. The returned Summary always reflects every requested claim.
func Run(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.L()

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("create output dir %s: %w", opts.OutputDir, err)
	}

	tasks := make([]task, 0, opts.Legitimate+opts.Fraudulent)
	for i := 0; i < opts.Legitimate; i++ {
		tasks = append(tasks, task{
			kind:   claim.KindLegitimate,
			seq:    i,
			policy: opts.LegitPolicy,
			file:   filepath.Join(opts.OutputDir, fmt.Sprintf("legit_claim_%d.pdf", i)),
		})
	}
	for i := 0; i < opts.Fraudulent; i++ {
		tasks = append(tasks, task{
			kind:   claim.KindFraudulent,
			seq:    i,
			policy: opts.FraudPolicy,
			file:   filepath.Join(opts.OutputDir, fmt.Sprintf("fraud_claim_%d.pdf", i)),
		})
	}

	log.Infow("starting batch run",
		"run_id", runID,
		"legitimate", opts.Legitimate,
		"fraudulent", opts.Fraudulent,
		"workers", opts.Workers,
		"output_dir", opts.OutputDir)

	var bar *progressbar.ProgressBar
	if opts.Progress && len(tasks) > 0 {
		bar = progressbar.NewOptions(len(tasks),
			progressbar.OptionSetDescription("generating claims"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
	}

	var succeeded, failed atomic.Int64
	p := pool.New().WithMaxGoroutines(opts.Workers)
	for i, t := range tasks {
		t := t
		faker := newFaker(opts.Seed, i)
		p.Go(func() {
			defer func() {
				if bar != nil {
					_ = bar.Add(1)
				}
			}()
			if err := ctx.Err(); err != nil {
				failed.Add(1)
				log.Errorw("claim skipped", "kind", t.kind, "seq", t.seq, "err", err.Error())
				return
			}
			if err := runOne(t, opts, faker); err != nil {
				failed.Add(1)
				log.Errorw("claim failed",
					"kind", t.kind,
					"seq", t.seq,
					"err", err.Error())
				return
			}
			succeeded.Add(1)
			log.Infow("claim generated",
				"kind", t.kind,
				"seq", t.seq,
				"file", t.file)
		})
	}
	p.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	summary := Summary{
		RunID:      runID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		OutputDir:  opts.OutputDir,
		Attempted:  len(tasks),
		Succeeded:  int(succeeded.Load()),
		Failed:     int(failed.Load()),
		DurationMS: time.Since(start).Milliseconds(),
	}

	if opts.RunLog != "" {
		if err := appendRunLog(opts.RunLog, summary); err != nil {
			log.Errorw("failed to write run log", "path", opts.RunLog, "err", err.Error())
		}
	}

	log.Infow("completed batch run",
		"run_id", runID,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", time.Since(start))
	return summary, nil
}

func runOne(t task, opts Options, f *gofakeit.Faker) error {
	rec, err := opts.Generator.Generate(f, t.kind, t.policy)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := opts.Renderer.Render(rec, t.file); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// newFaker derives a per-task random source. Fakers are not goroutine-safe,
// so each task owns one.
func newFaker(seed uint64, taskIdx int) *gofakeit.Faker {
	if seed == 0 {
		return gofakeit.New(0)
	}
	return gofakeit.New(seed + uint64(taskIdx) + 1)
}

func appendRunLog(path string, summary Summary) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	return enc.Encode(summary)
}

// Package batch converts many log files concurrently. Files are
// independent, so the pool is a flat errgroup with a worker limit; one
// file's failure never stops the others.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/licorflow/licorflow/pkg/convert"
	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/sink"
	"github.com/licorflow/licorflow/pkg/telemetry"
)

// Job is one file conversion request.
type Job struct {
	Input   string
	Output  string
	Device  string
	Config  string
	Format  sink.Kind
	Options sink.Options
}

// Result is the per-file outcome. Err is nil on success.
type Result struct {
	JobID    string
	Input    string
	Output   string
	Rows     int64
	Bytes    int64
	Warnings int
	Duration time.Duration
	Err      error

	// WarningList holds rendered warnings, capped at maxWarningList.
	WarningList []string
}

// maxWarningList bounds per-file warning retention in batch results.
const maxWarningList = 100

// Runner drives a batch of conversions.
type Runner struct {
	// Workers caps concurrent conversions. Zero means GOMAXPROCS.
	Workers int

	// OnResult, if set, is called once per finished file, from the worker
	// goroutine that produced it.
	OnResult func(Result)

	conv *convert.Converter
}

// NewRunner creates a Runner with the given worker cap.
func NewRunner(workers int) *Runner {
	return &Runner{
		Workers: workers,
		conv:    convert.New(),
	}
}

// Run converts every job and returns one Result per job, in job order.
// Per-file failures are carried in their Result and folded into the
// returned error; Run itself stops early only on context cancellation.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := r.runOne(ctx, job)

			mu.Lock()
			results[i] = res
			mu.Unlock()

			if r.OnResult != nil {
				r.OnResult(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Jobs that never ran still need a failed Result, or reports
		// would show them as blank successes.
		for i := range results {
			if results[i].JobID == "" {
				results[i] = Result{Input: jobs[i].Input, Output: jobs[i].Output, Err: err}
			}
		}
		return results, errors.Wrap(err, errors.CodeIO, "batch canceled")
	}

	merr := &errors.MultiError{}
	for _, res := range results {
		if res.Err != nil {
			merr.Add(fmt.Errorf("%s: %w", res.Input, res.Err))
		}
	}
	return results, merr.Combined()
}

func (r *Runner) runOne(ctx context.Context, job Job) Result {
	res := Result{
		JobID:  uuid.NewString(),
		Input:  job.Input,
		Output: job.Output,
	}
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "convert.file",
		telemetry.FileAttrs(job.Input, job.Device, job.Config)...)
	defer span.End()

	tbl, err := r.conv.Convert(ctx, job.Input, job.Device, job.Config)
	if err != nil {
		telemetry.RecordError(ctx, err)
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	defer tbl.Release()

	res.Rows = tbl.NumRows()
	res.Warnings = len(tbl.Warnings)
	for i, w := range tbl.Warnings {
		if i == maxWarningList {
			break
		}
		res.WarningList = append(res.WarningList, w.String())
	}

	out, err := sink.Write(ctx, tbl, job.Format, job.Output, job.Options)
	if err != nil {
		telemetry.RecordError(ctx, err)
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	res.Bytes = out.Bytes
	res.Duration = time.Since(start)
	telemetry.RecordRows(ctx, res.Rows, res.Warnings)
	return res
}

// Plan builds one Job per input, writing outputs next to each other in
// outDir with the format's extension.
func Plan(inputs []string, outDir, device, config string, format sink.Kind, opts sink.Options) []Job {
	jobs := make([]Job, 0, len(inputs))
	for _, in := range inputs {
		base := filepath.Base(in)
		if ext := filepath.Ext(base); ext != "" && !strings.HasPrefix(base, ".") {
			base = strings.TrimSuffix(base, ext)
		}
		jobs = append(jobs, Job{
			Input:   in,
			Output:  filepath.Join(outDir, base+format.Extension()),
			Device:  device,
			Config:  config,
			Format:  format,
			Options: opts,
		})
	}
	return jobs
}

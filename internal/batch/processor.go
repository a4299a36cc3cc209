// Package batch walks a results tree and applies a per-record operation to
// every result file, persisting each file in place. One bad record never
// aborts its file, one bad file never aborts the run.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/gaokao-bench/grader/internal/result"
)

// Op processes one record in place and returns the score to count toward
// the file mean. An error skips the record.
type Op func(ctx context.Context, rec *result.Record) (float64, error)

// Processor applies an Op to every record of every file handed to Run.
type Processor struct {
	// Key selects the document collection (result.KeyQuestions or
	// result.KeyExamples).
	Key string
	// Op is the per-record operation.
	Op Op
	// Skip, when set, marks records as already done; they are neither
	// processed nor counted. Used for resumable teacher grading.
	Skip func(rec *result.Record) bool
	// Checkpoint persists the file every N processed records, bounding
	// the work lost on interruption. 0 saves only once at the end.
	Checkpoint int
	// Delay is slept after every processed record to respect the remote
	// service's rate limits. 0 for local operations.
	Delay time.Duration
	// Backup, when non-empty, writes a pristine sibling copy (suffix
	// appended to the file name) before the first mutation.
	Backup string
}

// FileResult summarizes one processed file.
type FileResult struct {
	Path      string
	Processed int
	Mean      float64
}

// RunSummary aggregates a whole run. MeanScore is weighted by per-file
// record counts.
type RunSummary struct {
	FilesProcessed int
	FilesFailed    int
	Records        int
	MeanScore      float64
}

// ProcessFile loads one result file, applies the operation to each record,
// and persists the file. A record-level failure is logged and skipped; a
// file-level failure is returned. Files processed to completion are saved
// once at the end, plus at every checkpoint interval; a file where nothing
// needed processing is left untouched.
func (p *Processor) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Path: path}

	f, err := result.Load(path, p.Key)
	if err != nil {
		return res, err
	}
	if len(f.Records) == 0 {
		slog.Warn("result file has no records", "path", path, "key", p.Key)
		return res, nil
	}

	backedUp := p.Backup == ""
	var total float64

	for i := range f.Records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec := &f.Records[i]
		if p.Skip != nil && p.Skip(rec) {
			continue
		}

		if !backedUp {
			if err := f.WriteBackup(p.Backup); err != nil {
				return res, err
			}
			backedUp = true
		}

		score, err := p.Op(ctx, rec)
		if p.Delay > 0 {
			time.Sleep(p.Delay)
		}
		if err != nil {
			slog.Warn("record processing failed", "path", path, "index", i, "error", err)
			continue
		}

		res.Processed++
		total += score

		if p.Checkpoint > 0 && res.Processed%p.Checkpoint == 0 {
			if err := f.Save(); err != nil {
				return res, err
			}
		}
	}

	if res.Processed == 0 {
		return res, nil
	}
	if err := f.Save(); err != nil {
		return res, err
	}
	res.Mean = total / float64(res.Processed)
	return res, nil
}

// Run processes each file in order and aggregates the results. File-level
// failures are counted and logged, never fatal.
func (p *Processor) Run(ctx context.Context, files []string) RunSummary {
	var summary RunSummary
	var weighted float64

	for _, path := range files {
		res, err := p.ProcessFile(ctx, path)
		if err != nil {
			slog.Error("file processing failed", "path", path, "error", err)
			summary.FilesFailed++
			continue
		}
		summary.FilesProcessed++
		summary.Records += res.Processed
		weighted += res.Mean * float64(res.Processed)
		slog.Info("file processed", "path", path, "records", res.Processed, "mean", res.Mean)
	}

	if summary.Records > 0 {
		summary.MeanScore = weighted / float64(summary.Records)
	}
	return summary
}

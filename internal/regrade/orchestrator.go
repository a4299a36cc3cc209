// Package regrade repairs teacher verdicts that came back as zero. A zero
// score is the grader's failure default as well as a legitimate grade, so
// every zero-score record is re-submitted with a prompt that stresses
// partial credit, and the old verdict survives any failed repair.
package regrade

import (
	"context"
	"log/slog"
	"time"

	"github.com/gaokao-bench/grader/internal/batch"
	"github.com/gaokao-bench/grader/internal/result"
	"github.com/gaokao-bench/grader/internal/teacher"
	"github.com/gaokao-bench/grader/internal/teacher/prompts"
)

// BackupSuffix names the pristine pre-repair snapshot.
const BackupSuffix = ".regrade_backup"

// Config configures one regrading sweep.
type Config struct {
	Root           string
	StrategyFilter string
	Backup         bool
	Checkpoint     int           // default 5
	Delay          time.Duration // after each remote call, default 500ms
}

// Orchestrator runs the scan/report/repair/statistics sweep.
type Orchestrator struct {
	cfg    Config
	grader batch.Grader
	now    func() time.Time
}

// New creates an orchestrator. The grader is typically *teacher.Client.
func New(cfg Config, grader batch.Grader) *Orchestrator {
	if cfg.Checkpoint <= 0 {
		cfg.Checkpoint = batch.DefaultCheckpointInterval
	}
	return &Orchestrator{cfg: cfg, grader: grader, now: time.Now}
}

// Target is one file with the positions of its zero-score records.
type Target struct {
	Path    string
	Indices []int
}

// Summary reports a completed sweep.
type Summary struct {
	// Scan phase.
	TargetFiles   int
	TargetRecords int
	// Repair phase.
	FilesRepaired int
	FilesFailed   int
	Regraded      int
	Improved      int
	// Final statistics over the whole tree.
	TotalRecords  int
	ResidualZeros int
}

// Run performs the full sweep. Per-file failures are counted, never fatal.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	targets, err := o.Scan()
	if err != nil {
		return nil, err
	}

	summary := &Summary{TargetFiles: len(targets)}
	for _, t := range targets {
		summary.TargetRecords += len(t.Indices)
	}
	slog.Info("regrade scan complete",
		"files", summary.TargetFiles, "records", summary.TargetRecords)

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		regraded, improved, err := o.repairFile(ctx, t)
		summary.Regraded += regraded
		summary.Improved += improved
		if err != nil {
			slog.Error("regrade failed for file", "path", t.Path, "error", err)
			summary.FilesFailed++
			continue
		}
		summary.FilesRepaired++
		slog.Info("file regraded", "path", t.Path, "records", regraded, "improved", improved)
	}

	summary.TotalRecords, summary.ResidualZeros = o.residualZeros()
	return summary, nil
}

// Scan collects, per file, the indices of records whose teacher score is
// present and exactly zero. Records never graded are not selected: they
// belong to the first-pass pipeline. An unreadable file is logged and
// excluded.
func (o *Orchestrator) Scan() ([]Target, error) {
	files, err := batch.ScanFiles(o.cfg.Root, o.cfg.StrategyFilter)
	if err != nil {
		return nil, err
	}

	var targets []Target
	for _, path := range files {
		f, err := result.Load(path, result.KeyExamples)
		if err != nil {
			slog.Warn("skipping unreadable result file", "path", path, "error", err)
			continue
		}
		var indices []int
		for i := range f.Records {
			score := f.Records[i].TeacherScore
			if score != nil && *score == 0.0 {
				indices = append(indices, i)
			}
		}
		if len(indices) > 0 {
			targets = append(targets, Target{Path: path, Indices: indices})
		}
	}
	return targets, nil
}

func (o *Orchestrator) repairFile(ctx context.Context, t Target) (regraded, improved int, err error) {
	f, err := result.Load(t.Path, result.KeyExamples)
	if err != nil {
		return 0, 0, err
	}

	if o.cfg.Backup {
		if err := f.WriteBackup(BackupSuffix); err != nil {
			return 0, 0, err
		}
	}

	for _, idx := range t.Indices {
		if err := ctx.Err(); err != nil {
			return regraded, improved, err
		}
		if idx >= len(f.Records) {
			continue
		}
		rec := &f.Records[idx]
		oldScore := 0.0
		if rec.TeacherScore != nil {
			oldScore = *rec.TeacherScore
		}

		v, gradeErr := o.grader.Grade(ctx, teacher.Request{
			Question:    rec.Question,
			Answer:      rec.Standard(),
			Analysis:    rec.Analysis,
			MaxScore:    rec.MaxScore(0),
			ModelOutput: rec.ModelOutput,
			Variant:     prompts.VariantRegrade,
		})
		if o.cfg.Delay > 0 {
			time.Sleep(o.cfg.Delay)
		}
		if gradeErr != nil {
			// Keep the old zero: the record stays eligible for the next
			// sweep.
			slog.Warn("regrade call failed, keeping old score",
				"path", t.Path, "index", idx, "error", gradeErr)
			continue
		}

		rec.SetVerdict(v.Score, v.Rationale, o.now().Format(result.TimestampLayout))
		regraded++
		if v.Score > oldScore {
			improved++
		}
		if regraded%o.cfg.Checkpoint == 0 {
			if err := f.Save(); err != nil {
				return regraded, improved, err
			}
		}
	}

	if err := f.Save(); err != nil {
		return regraded, improved, err
	}
	return regraded, improved, nil
}

// residualZeros re-scans the tree after repair and counts what is left.
func (o *Orchestrator) residualZeros() (total, zeros int) {
	files, err := batch.ScanFiles(o.cfg.Root, o.cfg.StrategyFilter)
	if err != nil {
		slog.Warn("final statistics scan failed", "error", err)
		return 0, 0
	}
	for _, path := range files {
		f, err := result.Load(path, result.KeyExamples)
		if err != nil {
			continue
		}
		total += len(f.Records)
		for i := range f.Records {
			score := f.Records[i].TeacherScore
			if score != nil && *score == 0.0 {
				zeros++
			}
		}
	}
	return total, zeros
}

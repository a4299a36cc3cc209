// Package stats aggregates score rates over a results tree: for each
// strategy directory and domain file, the earned share of the available
// points. It reads the same documents the grading pipelines write and has
// no side effects beyond an optional CSV export.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gaokao-bench/grader/internal/batch"
	"github.com/gaokao-bench/grader/internal/result"
)

// Pipeline selects which score field feeds the aggregation.
type Pipeline string

const (
	// PipelineObjective reads model_score from "questions" documents.
	PipelineObjective Pipeline = "objective"
	// PipelineTeacher reads teacher_score from "example" documents.
	PipelineTeacher Pipeline = "teacher"
)

// Valid reports whether p names a known pipeline.
func (p Pipeline) Valid() bool {
	return p == PipelineObjective || p == PipelineTeacher
}

// Entry is the aggregate for one (strategy, domain) cell.
type Entry struct {
	Strategy string
	Domain   string
	Records  int
	MaxTotal float64
	Earned   float64
}

// Rate is the earned share of the available points.
func (e Entry) Rate() float64 {
	if e.MaxTotal == 0 {
		return 0
	}
	return e.Earned / e.MaxTotal
}

// Collect walks the tree and aggregates per strategy directory (the file's
// parent, or "." for top-level files) and domain (the file name without
// extension). Records without a score ceiling are excluded, as are records
// the selected pipeline has not graded yet. Unreadable files are logged
// and skipped.
func Collect(root string, pipeline Pipeline) ([]Entry, error) {
	if !pipeline.Valid() {
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}
	key := result.KeyQuestions
	if pipeline == PipelineTeacher {
		key = result.KeyExamples
	}

	files, err := batch.ScanFiles(root, "")
	if err != nil {
		return nil, err
	}

	byCell := make(map[string]*Entry)
	for _, path := range files {
		f, err := result.Load(path, key)
		if err != nil {
			slog.Warn("skipping unreadable result file", "path", path, "error", err)
			continue
		}

		strategy := "."
		if rel, err := filepath.Rel(root, path); err == nil {
			if dir := filepath.Dir(rel); dir != "." {
				strategy = strings.Split(dir, string(filepath.Separator))[0]
			}
		}
		domain := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		cell := strategy + "\x00" + domain
		entry, ok := byCell[cell]
		if !ok {
			entry = &Entry{Strategy: strategy, Domain: domain}
			byCell[cell] = entry
		}

		for i := range f.Records {
			rec := &f.Records[i]
			max := rec.MaxScore(0)
			if max <= 0 {
				continue
			}
			var earned *float64
			if pipeline == PipelineObjective {
				earned = rec.ModelScore
			} else {
				earned = rec.TeacherScore
			}
			if earned == nil {
				continue
			}
			entry.Records++
			entry.MaxTotal += max
			entry.Earned += *earned
		}
	}

	entries := make([]Entry, 0, len(byCell))
	for _, e := range byCell {
		if e.Records > 0 {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Strategy != entries[j].Strategy {
			return entries[i].Strategy < entries[j].Strategy
		}
		return entries[i].Domain < entries[j].Domain
	})
	return entries, nil
}

// WriteCSV emits the aggregation as a CSV table.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"strategy", "domain", "records", "total_score", "earned_score", "scoring_rate"}); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Strategy,
			e.Domain,
			strconv.Itoa(e.Records),
			strconv.FormatFloat(e.MaxTotal, 'f', -1, 64),
			strconv.FormatFloat(e.Earned, 'f', -1, 64),
			strconv.FormatFloat(e.Rate(), 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

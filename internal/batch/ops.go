package batch

import (
	"context"
	"time"

	"github.com/gaokao-bench/grader/internal/result"
	"github.com/gaokao-bench/grader/internal/scoring"
	"github.com/gaokao-bench/grader/internal/teacher"
	"github.com/gaokao-bench/grader/internal/teacher/prompts"
)

const (
	// DefaultMaxScore is the score ceiling assumed when an objective
	// record does not carry one.
	DefaultMaxScore = 3.0
	// DefaultCheckpointInterval bounds work lost on interruption during
	// remote grading.
	DefaultCheckpointInterval = 5
	// DefaultCallDelay is the pause after each remote call.
	DefaultCallDelay = 500 * time.Millisecond

	// FailureRationale marks records whose first-time grading call failed
	// outright.
	FailureRationale = "评分系统调用失败，无法给出评分"
)

// Grader grades one answer remotely. *teacher.Client implements it.
type Grader interface {
	Grade(ctx context.Context, req teacher.Request) (*teacher.Verdict, error)
}

// NewObjectiveProcessor scores multiple-choice records with the rule-based
// policies. Purely local: no checkpointing, no delay, one write per file.
func NewObjectiveProcessor() *Processor {
	return &Processor{
		Key: result.KeyQuestions,
		Op:  ScoreRecord,
	}
}

// ScoreRecord computes the objective score for one record. It never fails:
// a malformed answer normalizes to the empty set and scores accordingly.
func ScoreRecord(_ context.Context, rec *result.Record) (float64, error) {
	score := scoring.Score(rec.Standard(), rec.ModelAnswer, rec.MaxScore(DefaultMaxScore))
	rec.ModelScore = &score
	return score, nil
}

// NewTeacherProcessor grades free-form answers through the remote grader.
// Records that already carry a complete verdict are skipped, making re-runs
// idempotent; progress is checkpointed every few records.
func NewTeacherProcessor(g Grader, delay time.Duration, backup string) *Processor {
	return &Processor{
		Key:        result.KeyExamples,
		Op:         GradeRecord(g, prompts.VariantStandard, time.Now),
		Skip:       func(rec *result.Record) bool { return rec.TeacherGraded() },
		Checkpoint: DefaultCheckpointInterval,
		Delay:      delay,
		Backup:     backup,
	}
}

// GradeRecord builds the per-record operation for remote grading. A failed
// call (after the client's own retries) writes a zero score with a failure
// rationale rather than aborting the batch.
func GradeRecord(g Grader, variant prompts.Variant, now func() time.Time) Op {
	return func(ctx context.Context, rec *result.Record) (float64, error) {
		v, err := g.Grade(ctx, teacher.Request{
			Question:    rec.Question,
			Answer:      rec.Standard(),
			Analysis:    rec.Analysis,
			MaxScore:    rec.MaxScore(0),
			ModelOutput: rec.ModelOutput,
			Variant:     variant,
		})
		stamp := now().Format(result.TimestampLayout)
		if err != nil {
			rec.SetVerdict(0.0, FailureRationale, stamp)
			return 0, nil
		}
		rec.SetVerdict(v.Score, v.Rationale, stamp)
		return v.Score, nil
	}
}

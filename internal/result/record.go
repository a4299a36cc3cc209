// Package result models the on-disk result documents produced by the answer
// generation pipeline: a JSON object whose collection field holds one graded
// record per question. Documents are rewritten whole; fields this tool does
// not understand ride along untouched.
package result

import "encoding/json"

// Time layout used for grading timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one graded question. StandardAnswer holds the objective
// pipeline's answer key; Answer holds the subjective pipeline's reference
// answer. Either may be a string or a list of option tokens, so both are
// kept as decoded JSON values.
//
// ModelScore is written by the rule-based scorer, TeacherScore and
// TeacherAnalysis by the remote grader; the two never touch each other's
// fields. TeacherScore and TeacherAnalysis are always written together.
type Record struct {
	Question        string
	StandardAnswer  any
	Answer          any
	Analysis        string
	Score           *float64
	ModelAnswer     any
	ModelOutput     string
	ModelScore      *float64
	TeacherScore    *float64
	TeacherAnalysis string
	GradedAt        string

	// extra preserves record fields this tool does not interpret
	// (index, year, category, strategy, timestamps from generation).
	extra map[string]json.RawMessage
}

// MaxScore returns the record's score ceiling, falling back to def when the
// document does not carry one.
func (r *Record) MaxScore(def float64) float64 {
	if r.Score != nil {
		return *r.Score
	}
	return def
}

// Standard returns whichever standard-answer field the record carries,
// preferring the objective pipeline's key.
func (r *Record) Standard() any {
	if r.StandardAnswer != nil {
		return r.StandardAnswer
	}
	return r.Answer
}

// TeacherGraded reports whether the record already carries a complete
// teacher verdict. Both fields must be present: a score without a rationale
// is treated as not yet graded.
func (r *Record) TeacherGraded() bool {
	return r.TeacherScore != nil && r.TeacherAnalysis != ""
}

// SetVerdict writes a teacher verdict and its timestamp atomically with
// respect to the record: score, rationale and time always change together.
func (r *Record) SetVerdict(score float64, rationale, gradedAt string) {
	r.TeacherScore = &score
	r.TeacherAnalysis = rationale
	r.GradedAt = gradedAt
}

// Known record keys; everything else round-trips through extra.
const (
	keyQuestion        = "question"
	keyStandardAnswer  = "standard_answer"
	keyAnswer          = "answer"
	keyAnalysis        = "analysis"
	keyScore           = "score"
	keyModelAnswer     = "model_answer"
	keyModelOutput     = "model_output"
	keyModelScore      = "model_score"
	keyTeacherScore    = "teacher_score"
	keyTeacherAnalysis = "teacher_analysis"
	keyGradedAt        = "grading_timestamp"
)

// UnmarshalJSON decodes the known fields and stashes everything else.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	take := func(key string, dst any) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		return json.Unmarshal(raw, dst)
	}

	if err := take(keyQuestion, &r.Question); err != nil {
		return err
	}
	if err := take(keyStandardAnswer, &r.StandardAnswer); err != nil {
		return err
	}
	if err := take(keyAnswer, &r.Answer); err != nil {
		return err
	}
	if err := take(keyAnalysis, &r.Analysis); err != nil {
		return err
	}
	if err := take(keyScore, &r.Score); err != nil {
		return err
	}
	if err := take(keyModelAnswer, &r.ModelAnswer); err != nil {
		return err
	}
	if err := take(keyModelOutput, &r.ModelOutput); err != nil {
		return err
	}
	if err := take(keyModelScore, &r.ModelScore); err != nil {
		return err
	}
	if err := take(keyTeacherScore, &r.TeacherScore); err != nil {
		return err
	}
	if err := take(keyTeacherAnalysis, &r.TeacherAnalysis); err != nil {
		return err
	}
	if err := take(keyGradedAt, &r.GradedAt); err != nil {
		return err
	}

	r.extra = fields
	return nil
}

// MarshalJSON re-assembles the record, preserved fields included.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.extra)+11)
	for k, v := range r.extra {
		fields[k] = v
	}

	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fields[key] = raw
		return nil
	}

	if r.Question != "" {
		if err := put(keyQuestion, r.Question); err != nil {
			return nil, err
		}
	}
	if r.StandardAnswer != nil {
		if err := put(keyStandardAnswer, r.StandardAnswer); err != nil {
			return nil, err
		}
	}
	if r.Answer != nil {
		if err := put(keyAnswer, r.Answer); err != nil {
			return nil, err
		}
	}
	if r.Analysis != "" {
		if err := put(keyAnalysis, r.Analysis); err != nil {
			return nil, err
		}
	}
	if r.Score != nil {
		if err := put(keyScore, *r.Score); err != nil {
			return nil, err
		}
	}
	if r.ModelAnswer != nil {
		if err := put(keyModelAnswer, r.ModelAnswer); err != nil {
			return nil, err
		}
	}
	if r.ModelOutput != "" {
		if err := put(keyModelOutput, r.ModelOutput); err != nil {
			return nil, err
		}
	}
	if r.ModelScore != nil {
		if err := put(keyModelScore, *r.ModelScore); err != nil {
			return nil, err
		}
	}
	if r.TeacherScore != nil {
		if err := put(keyTeacherScore, *r.TeacherScore); err != nil {
			return nil, err
		}
	}
	if r.TeacherAnalysis != "" {
		if err := put(keyTeacherAnalysis, r.TeacherAnalysis); err != nil {
			return nil, err
		}
	}
	if r.GradedAt != "" {
		if err := put(keyGradedAt, r.GradedAt); err != nil {
			return nil, err
		}
	}

	return json.Marshal(fields)
}

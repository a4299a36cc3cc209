package scoring

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		standard any
		want     QuestionType
	}{
		{"single letter entries", []string{"A", "B"}, TypeSeparate},
		{"one entry", []string{"A"}, TypeSeparate},
		{"combined group", []string{"BC"}, TypeCombined},
		{"mixed entries", []string{"A", "BC"}, TypeCombined},
		{"empty sequence", []string{}, TypeSeparate},
		{"free text", "BC", TypeCombined},
		{"free text single letter", "A", TypeSeparate},
		{"json decoded", []any{"A", "C"}, TypeSeparate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.standard); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.standard, got, tt.want)
			}
		})
	}
}

func TestSeparateScore(t *testing.T) {
	tests := []struct {
		name      string
		standard  any
		candidate any
		maxScore  float64
		want      float64
	}{
		{"half recall", []string{"A", "C"}, []string{"A"}, 10, 5.0},
		{"extra selection not penalized", []string{"A", "C"}, []string{"A", "C", "D"}, 10, 10.0},
		{"full match", []string{"A", "B"}, []string{"B", "A"}, 6, 6.0},
		{"no overlap", []string{"A"}, []string{"B"}, 3, 0.0},
		{"both empty", []string{}, []string{}, 3, 3.0},
		{"empty standard nonempty candidate", []string{}, []string{"A"}, 3, 0.0},
		{"candidate from free text", []string{"A", "C"}, "my answer: a, C", 10, 10.0},
		{"third rounds to two decimals", []string{"A", "B", "C"}, []string{"A"}, 10, 3.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Separate{}.Score(tt.standard, tt.candidate, tt.maxScore)
			if got != tt.want {
				t.Errorf("Separate.Score(%v, %v, %v) = %v, want %v",
					tt.standard, tt.candidate, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestCombinedScore(t *testing.T) {
	tests := []struct {
		name      string
		standard  any
		candidate any
		maxScore  float64
		want      float64
	}{
		{"exact match", []string{"BC"}, []string{"B", "C"}, 10, 10.0},
		{"false positive forfeits", []string{"BC"}, []string{"B", "C", "D"}, 10, 0.0},
		{"clean subset partial credit", []string{"BCD"}, []string{"B"}, 9, 3.0},
		{"two of three", []string{"BCD"}, []string{"B", "C"}, 9, 6.0},
		{"single wrong letter", []string{"BC"}, []string{"A"}, 10, 0.0},
		{"empty candidate", []string{"BC"}, []string{}, 10, 0.0},
		{"both empty", []string{""}, []string{}, 10, 10.0},
		{"empty standard nonempty candidate", []string{""}, []string{"A"}, 10, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combined{}.Score(tt.standard, tt.candidate, tt.maxScore)
			if got != tt.want {
				t.Errorf("Combined.Score(%v, %v, %v) = %v, want %v",
					tt.standard, tt.candidate, tt.maxScore, got, tt.want)
			}
		})
	}
}

func TestScoreSelectsStrategy(t *testing.T) {
	// Same letters, different authoring shape, different outcome: the
	// separate form ignores the extra D, the combined form forfeits.
	cand := []string{"B", "C", "D"}
	if got := Score([]string{"B", "C"}, cand, 10); got != 10.0 {
		t.Errorf("separate shape = %v, want 10.0", got)
	}
	if got := Score([]string{"BC"}, cand, 10); got != 0.0 {
		t.Errorf("combined shape = %v, want 0.0", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	std := []string{"A", "C", "D"}
	cand := []string{"C", "A"}
	first := Score(std, cand, 6)
	for i := 0; i < 10; i++ {
		if got := Score(std, cand, 6); got != first {
			t.Fatalf("score changed between runs: %v vs %v", got, first)
		}
	}
}

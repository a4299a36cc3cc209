package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, path string, doc map[string]any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectTeacher(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "Strategy_0_CoT", "History.json"), map[string]any{
		"example": []map[string]any{
			{"score": 6, "teacher_score": 3.0, "teacher_analysis": "一半"},
			{"score": 4, "teacher_score": 4.0, "teacher_analysis": "全对"},
			{"score": 0, "teacher_score": 0.0, "teacher_analysis": "零分值，不计入"},
			{"score": 5}, // not graded yet, not counted
		},
	})
	writeDoc(t, filepath.Join(root, "Strategy_1_Direct", "History.json"), map[string]any{
		"example": []map[string]any{
			{"score": 6, "teacher_score": 6.0, "teacher_analysis": "满分"},
		},
	})

	entries, err := Collect(root, PipelineTeacher)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	e := entries[0]
	if e.Strategy != "Strategy_0_CoT" || e.Domain != "History" {
		t.Errorf("entry[0] cell = %s/%s", e.Strategy, e.Domain)
	}
	if e.Records != 2 || e.MaxTotal != 10 || e.Earned != 7 {
		t.Errorf("entry[0] = %+v", e)
	}
	if e.Rate() != 0.7 {
		t.Errorf("rate = %v, want 0.7", e.Rate())
	}
	if entries[1].Rate() != 1.0 {
		t.Errorf("entry[1] rate = %v, want 1.0", entries[1].Rate())
	}
}

func TestCollectObjective(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "math.json"), map[string]any{
		"questions": []map[string]any{
			{"score": 10, "model_score": 5.0},
			{"score": 10, "model_score": 10.0},
		},
	})

	entries, err := Collect(root, PipelineObjective)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Strategy != "." || entries[0].Rate() != 0.75 {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestCollectUnknownPipeline(t *testing.T) {
	if _, err := Collect(t.TempDir(), Pipeline("charts")); err == nil {
		t.Fatal("expected error for unknown pipeline")
	}
}

func TestWriteCSV(t *testing.T) {
	entries := []Entry{
		{Strategy: "Strategy_0_CoT", Domain: "History", Records: 2, MaxTotal: 10, Earned: 7},
	}
	var sb strings.Builder
	if err := WriteCSV(&sb, entries); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want 2", len(lines))
	}
	if lines[0] != "strategy,domain,records,total_score,earned_score,scoring_rate" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Strategy_0_CoT,History,2,10,7,0.7000" {
		t.Errorf("row = %q", lines[1])
	}
}

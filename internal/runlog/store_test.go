package runlog

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecentRuns(t *testing.T) {
	s := newTestStore(t)

	started := time.Now().Add(-time.Minute)
	for i, cmd := range []string{"score", "grade", "regrade"} {
		_, err := s.RecordRun(Run{
			Command:        cmd,
			Root:           "/data/results",
			FilesProcessed: i + 1,
			FilesFailed:    i,
			Records:        (i + 1) * 10,
			MeanScore:      float64(i) + 0.5,
			StartedAt:      started,
			FinishedAt:     started.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("RecordRun(%s): %v", cmd, err)
		}
	}

	runs, err := s.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Command != "regrade" || runs[1].Command != "grade" {
		t.Errorf("order = %s, %s; want newest first", runs[0].Command, runs[1].Command)
	}
	if runs[0].Records != 30 || runs[0].MeanScore != 2.5 {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestRecentRunsEmpty(t *testing.T) {
	s := newTestStore(t)
	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}

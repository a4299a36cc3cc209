package i18n

import (
	"strings"
	"testing"
)

func TestInitAndTranslate(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got := T("RegradeScanComplete", map[string]any{"Records": 7, "Files": 2})
	if !strings.Contains(got, "7") || !strings.Contains(got, "2") {
		t.Errorf("T = %q, want counts interpolated", got)
	}
}

func TestTranslateChinese(t *testing.T) {
	if err := Init("zh"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got := T("RegradeNothingToDo", nil)
	if !strings.Contains(got, "重新评分") {
		t.Errorf("T = %q, want Chinese message", got)
	}
}

func TestUnknownMessageFallsBack(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatal(err)
	}
	if got := T("NoSuchMessage", nil); got != "NoSuchMessage" {
		t.Errorf("T = %q, want message ID fallback", got)
	}
}

func TestInitBadLanguage(t *testing.T) {
	if err := Init("!!"); err == nil {
		t.Error("expected error for invalid language tag")
	}
}

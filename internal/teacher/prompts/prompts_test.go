package prompts

import (
	"strings"
	"testing"
)

func TestBuildGradePrompt(t *testing.T) {
	data := GradeData{
		Question:    "5. W、X、Y、Z 为原子序数依次增大的短周期元素……",
		Answer:      "A",
		Analysis:    "由分析可知，X 为 N 元素。",
		MaxScore:    6,
		ModelOutput: "【答案】A<eoa>",
	}

	for _, variant := range []Variant{VariantStandard, VariantRegrade} {
		t.Run(string(variant), func(t *testing.T) {
			prompt, err := BuildGradePrompt(variant, data)
			if err != nil {
				t.Fatalf("BuildGradePrompt: %v", err)
			}
			for _, want := range []string{data.Question, data.Answer, data.Analysis, data.ModelOutput, "6 分", "teacher_score"} {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt should contain %q", want)
				}
			}
		})
	}
}

func TestRegradeVariantMentionsPartialCredit(t *testing.T) {
	data := GradeData{Question: "q", Answer: "A", MaxScore: 3}

	standard, err := BuildGradePrompt(VariantStandard, data)
	if err != nil {
		t.Fatal(err)
	}
	regrade, err := BuildGradePrompt(VariantRegrade, data)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(regrade, "部分得分原则") {
		t.Error("regrade prompt should stress partial credit")
	}
	if strings.Contains(standard, "请重新评分") {
		t.Error("standard prompt should not ask for a regrade")
	}
}

func TestSystemPrompt(t *testing.T) {
	standard, err := SystemPrompt(VariantStandard)
	if err != nil {
		t.Fatal(err)
	}
	regrade, err := SystemPrompt(VariantRegrade)
	if err != nil {
		t.Fatal(err)
	}
	if standard == "" || regrade == "" {
		t.Fatal("system prompts should not be empty")
	}
	if !strings.Contains(regrade, "部分得分原则") {
		t.Error("regrade system prompt should stress partial credit")
	}
}

func TestIsValidVariant(t *testing.T) {
	if !IsValidVariant("standard") || !IsValidVariant("regrade") {
		t.Error("known variants rejected")
	}
	if IsValidVariant("lenient") {
		t.Error("unknown variant accepted")
	}
}

func TestInvalidVariant(t *testing.T) {
	if _, err := BuildGradePrompt(Variant("nope"), GradeData{}); err == nil {
		t.Error("expected error for unknown variant")
	}
	if _, err := SystemPrompt(Variant("nope")); err == nil {
		t.Error("expected error for unknown variant")
	}
}

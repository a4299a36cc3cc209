// Package prompts builds the rubric-constrained prompts sent to the remote
// grading model. Templates are embedded and loaded once.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Variant selects a grading prompt variant.
type Variant string

const (
	// VariantStandard is the first-pass grading prompt.
	VariantStandard Variant = "standard"
	// VariantRegrade emphasizes partial credit; used when repairing
	// zero-score verdicts.
	VariantRegrade Variant = "regrade"
)

var validVariants = map[Variant]bool{
	VariantStandard: true,
	VariantRegrade:  true,
}

// IsValidVariant checks a variant name.
func IsValidVariant(v string) bool {
	return validVariants[Variant(v)]
}

var (
	loadOnce       sync.Once
	loadErr        error
	gradeTemplates map[Variant]*template.Template
	systemPrompts  map[Variant]string
)

func load() error {
	loadOnce.Do(func() {
		gradeTemplates = make(map[Variant]*template.Template)
		systemPrompts = make(map[Variant]string)

		for v := range validVariants {
			gradeFile := "templates/grade_" + string(v) + ".txt"
			content, err := templateFS.ReadFile(gradeFile)
			if err != nil {
				loadErr = fmt.Errorf("read prompt template %s: %w", gradeFile, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", gradeFile, err)
				return
			}
			gradeTemplates[v] = tmpl

			sysFile := "templates/system_" + string(v) + ".txt"
			sys, err := templateFS.ReadFile(sysFile)
			if err != nil {
				loadErr = fmt.Errorf("read system prompt %s: %w", sysFile, err)
				return
			}
			systemPrompts[v] = strings.TrimSpace(string(sys))
		}
	})
	return loadErr
}

// GradeData holds template data for grading prompts. Answer is the standard
// answer already joined into a display string.
type GradeData struct {
	Question    string
	Answer      string
	Analysis    string
	MaxScore    float64
	ModelOutput string
}

// SystemPrompt returns the system message for a variant.
func SystemPrompt(variant Variant) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	sys, ok := systemPrompts[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}
	return sys, nil
}

// BuildGradePrompt renders the user message for a variant.
func BuildGradePrompt(variant Variant, data GradeData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := gradeTemplates[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

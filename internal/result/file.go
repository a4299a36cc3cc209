package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Collection keys used by the two pipelines.
const (
	// KeyQuestions holds objective-scoring records.
	KeyQuestions = "questions"
	// KeyExamples holds subjective (teacher-graded) records.
	KeyExamples = "example"
)

// File is one loaded result document. Top-level fields other than the
// record collection (category label, strategy label, model name) are kept
// verbatim and written back on save.
type File struct {
	Path    string
	Key     string
	Records []Record

	extra map[string]json.RawMessage
}

// Load reads a result document and decodes the records under key. A
// document without that key loads with zero records; a document that is
// not a JSON object is an error.
func Load(path, key string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse result file %s: %w", path, err)
	}

	f := &File{Path: path, Key: key, extra: fields}
	if raw, ok := fields[key]; ok {
		delete(fields, key)
		if err := json.Unmarshal(raw, &f.Records); err != nil {
			return nil, fmt.Errorf("parse %q records in %s: %w", key, path, err)
		}
	}
	return f, nil
}

// Save rewrites the whole document at its original path. The write goes to
// a temporary file in the same directory followed by a rename, so readers
// never observe a partially written document.
func (f *File) Save() error {
	return f.writeTo(f.Path)
}

// BackupPath returns the sibling path used by WriteBackup.
func (f *File) BackupPath(suffix string) string {
	return f.Path + suffix
}

// WriteBackup writes a pristine copy of the document next to the original,
// unless a backup already exists: an earlier snapshot is never clobbered.
// Call it before mutating records.
func (f *File) WriteBackup(suffix string) error {
	backup := f.BackupPath(suffix)
	if _, err := os.Stat(backup); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat backup: %w", err)
	}
	return f.writeTo(backup)
}

func (f *File) writeTo(path string) error {
	fields := make(map[string]json.RawMessage, len(f.extra)+1)
	for k, v := range f.extra {
		fields[k] = v
	}
	raw, err := json.Marshal(f.Records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	fields[f.Key] = raw

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/issue"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func sampleRun(id string, createdAt time.Time) *Run {
	return &Run{
		ID:              id,
		CreatedAt:       createdAt,
		SourcePath:      "/var/log/app",
		Keyword:         "db",
		Files:           2,
		SizeBytes:       4096,
		Provider:        "OpenAI",
		Model:           "gpt-4o-mini",
		InputTokens:     1000,
		OutputTokens:    500,
		CostUSD:         0.0105,
		DurationSeconds: 2.5,
		RawReport:       "Log snippet: db timeout\nSeverity: Critical",
		Issues: []issue.Record{
			{Snippet: "db timeout", Cause: "pool exhausted", Resolution: "raise pool", Severity: "Critical"},
			{Snippet: "db slow query", Severity: "Warning"},
		},
	}
}

func TestNew(t *testing.T) {
	storage := newTestStorage(t)
	if storage.db == nil {
		t.Fatal("Expected database connection to be initialized")
	}
	if v := storage.getSchemaVersion(); v != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", v, currentSchemaVersion)
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	storage, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = storage.Close() }()
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	storage, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := storage.SaveRun(sampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	_ = storage.Close()

	storage, err = New(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer func() { _ = storage.Close() }()

	if _, err := storage.LoadRun(); err != nil {
		t.Errorf("LoadRun() after reopen error = %v", err)
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	storage := newTestStorage(t)

	want := sampleRun("run-1", time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC))
	if err := storage.SaveRun(want); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := storage.LoadRun()
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}

	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	got.CreatedAt = want.CreatedAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadRun() = %+v, want %+v", got, want)
	}
}

func TestSaveRun_NoIssues(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun("empty", time.Now())
	run.Issues = nil
	if err := storage.SaveRun(run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := storage.LoadRun()
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if got.Issues == nil || len(got.Issues) != 0 {
		t.Errorf("expected empty non-nil issues, got %#v", got.Issues)
	}
}

func TestSaveRun_Validation(t *testing.T) {
	storage := newTestStorage(t)

	if err := storage.SaveRun(&Run{}); err == nil {
		t.Error("expected error for missing run ID")
	}

	if err := storage.SaveRun(sampleRun("first", time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := storage.SaveRun(sampleRun("second", time.Now())); !errors.Is(err, ErrRunExists) {
		t.Errorf("second SaveRun() error = %v, want ErrRunExists", err)
	}

	got, err := storage.LoadRun()
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if got.ID != "first" || len(got.Issues) != 2 {
		t.Errorf("rejected save must not change the export, got %s with %d issues", got.ID, len(got.Issues))
	}
}

func TestCreateReplacesPreviousExport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "export.db")

	storage, err := Create(dbPath, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := storage.SaveRun(sampleRun("old", time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	_ = storage.Close()

	storage, err = Create(dbPath, nil)
	if err != nil {
		t.Fatalf("Create() over existing file error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	if _, err := storage.LoadRun(); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadRun() on fresh export error = %v, want ErrRunNotFound", err)
	}

	run := sampleRun("new", time.Now())
	run.Issues = run.Issues[:1]
	if err := storage.SaveRun(run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	got, err := storage.LoadRun()
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if got.ID != "new" || len(got.Issues) != 1 {
		t.Errorf("LoadRun() = %s with %d issues, want new with 1", got.ID, len(got.Issues))
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	if _, err := newTestStorage(t).LoadRun(); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadRun() on empty db error = %v, want ErrRunNotFound", err)
	}
}

func TestRunFromResult(t *testing.T) {
	created := time.Now().UTC()
	result := &analyzer.Result{
		ID:         "id-1",
		SourcePath: "/logs",
		Source:     &analyzer.SourceInfo{Path: "/logs", Files: 3, SizeBytes: 900},
		Issues:     []issue.Record{{Snippet: "a", Severity: "Low"}, {Snippet: "b", Severity: "Critical"}},
		Ranked:     []issue.Record{{Snippet: "b", Severity: "Critical"}},
		Keyword:    "b",
		Stats:      &ai.Stats{Provider: "Anthropic", Model: "claude", InputTokens: 10, OutputTokens: 5, CostUSD: 0.1, DurationSeconds: 1.5},
		RawReport:  "raw",
		CreatedAt:  created,
	}

	run := RunFromResult(result)

	if run.ID != "id-1" || run.Files != 3 || run.SizeBytes != 900 || run.Provider != "Anthropic" {
		t.Errorf("unexpected run %+v", run)
	}
	if len(run.Issues) != 1 || run.Issues[0].Snippet != "b" {
		t.Errorf("expected ranked issues to be stored, got %+v", run.Issues)
	}

	bare := RunFromResult(&analyzer.Result{ID: "id-2"})
	if bare.Provider != "" || bare.Files != 0 {
		t.Errorf("expected zero stats for bare result, got %+v", bare)
	}
}

func TestClose(t *testing.T) {
	storage, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

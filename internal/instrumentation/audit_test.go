package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const (
	testToolSearch = "tasks_search"
	testToolGet    = "tasks_get"
	testQuery      = "buy milk"
)

// decodeLog parses a single JSON log line written by slog.
func decodeLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolSearch)

	if ti.Tool != testToolSearch {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolSearch)
	}
	if _, err := uuid.Parse(ti.ID); err != nil {
		t.Errorf("ID %q is not a valid UUID: %v", ti.ID, err)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Error != "" {
		t.Errorf("Error should be empty, got %q", ti.Error)
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_UniqueIDs(t *testing.T) {
	a := NewToolInvocation(testToolSearch)
	b := NewToolInvocation(testToolSearch)
	if a.ID == b.ID {
		t.Errorf("expected distinct invocation IDs, both were %q", a.ID)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolGet)
	ti.CompleteWithError(errors.New("task not found"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "task not found" {
		t.Errorf("Error = %q, want %q", ti.Error, "task not found")
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
}

func TestToolInvocation_Complete_NilError(t *testing.T) {
	ti := NewToolInvocation("test")
	ti.Complete(true, nil)

	if ti.Error != "" {
		t.Errorf("Error = %q, want empty string", ti.Error)
	}
}

func TestToolInvocation_Builders(t *testing.T) {
	args := map[string]any{"search": testQuery}
	ti := NewToolInvocation(testToolSearch).
		WithArguments(args).
		WithTarget("todoagenda", OperationSearch).
		WithResultCount(7)

	if ti.Resource != "todoagenda" {
		t.Errorf("Resource = %q, want %q", ti.Resource, "todoagenda")
	}
	if ti.Operation != OperationSearch {
		t.Errorf("Operation = %q, want %q", ti.Operation, OperationSearch)
	}
	if ti.ResultCount != 7 {
		t.Errorf("ResultCount = %d, want 7", ti.ResultCount)
	}
	if ti.Arguments["search"] != testQuery {
		t.Errorf("Arguments[search] = %v, want %q", ti.Arguments["search"], testQuery)
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation("test").WithSpanContext(context.Background())

	if ti.TraceID != "" {
		t.Errorf("TraceID = %q, want empty string", ti.TraceID)
	}
	if ti.SpanID != "" {
		t.Errorf("SpanID = %q, want empty string", ti.SpanID)
	}
}

func TestToolInvocation_WithSpanContext(t *testing.T) {
	withRecorder(t)
	ctx, span := StartToolSpan(context.Background(), testToolGet)
	defer span.End()

	ti := NewToolInvocation(testToolGet).WithSpanContext(ctx)
	if ti.TraceID != GetTraceID(ctx) {
		t.Errorf("TraceID = %q, want %q", ti.TraceID, GetTraceID(ctx))
	}
	if ti.SpanID != GetSpanID(ctx) {
		t.Errorf("SpanID = %q, want %q", ti.SpanID, GetSpanID(ctx))
	}
}

func TestToolInvocation_LogAttrs_RedactsArguments(t *testing.T) {
	logger, buf := newBufferLogger()
	ti := NewToolInvocation(testToolSearch).
		WithArguments(map[string]any{
			"search":       testQuery,
			"excluded_ids": []any{"1", "2"},
			"start":        float64(1700000000000),
		}).
		CompleteSuccess()

	logger.LogAttrs(context.Background(), slog.LevelInfo, "x", ti.LogAttrs()...)

	if strings.Contains(buf.String(), testQuery) {
		t.Errorf("redacted log leaked the search text: %s", buf.String())
	}

	entry := decodeLog(t, buf)
	args, ok := entry["args"].(map[string]any)
	if !ok {
		t.Fatalf("expected args group, got %v", entry["args"])
	}
	if args["search"] != "[8 chars]" {
		t.Errorf("args.search = %v, want %q", args["search"], "[8 chars]")
	}
	if args["excluded_ids"] != "[2 items]" {
		t.Errorf("args.excluded_ids = %v, want %q", args["excluded_ids"], "[2 items]")
	}
	if args["start"] != "float64" {
		t.Errorf("args.start = %v, want %q", args["start"], "float64")
	}
}

func TestToolInvocation_LogAuditAttrs_IncludesArguments(t *testing.T) {
	logger, buf := newBufferLogger()
	ti := NewToolInvocation(testToolSearch).
		WithArguments(map[string]any{"search": testQuery}).
		CompleteSuccess()

	logger.LogAttrs(context.Background(), slog.LevelInfo, "x", ti.LogAuditAttrs()...)

	entry := decodeLog(t, buf)
	args := entry["args"].(map[string]any)
	if args["search"] != testQuery {
		t.Errorf("args.search = %v, want %q", args["search"], testQuery)
	}
}

func TestAuditLogger_New(t *testing.T) {
	al := NewAuditLogger(nil)
	if al.logger == nil {
		t.Error("logger should not be nil when created with nil")
	}

	logger := slog.Default()
	al = NewAuditLogger(logger)
	if al.logger != logger {
		t.Error("logger should be the provided logger")
	}
	if al.includeArguments {
		t.Error("arguments should be redacted by default")
	}
}

func TestAuditLogger_LogToolInvocation_Success(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLogger(logger)

	ti := NewToolInvocation(testToolSearch).
		WithTarget("todoagenda", OperationSearch).
		WithResultCount(3).
		CompleteSuccess()
	al.LogToolInvocation(ti)

	entry := decodeLog(t, buf)
	if entry["msg"] != "tool_executed" {
		t.Errorf("msg = %v, want tool_executed", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["invocation_id"] != ti.ID {
		t.Errorf("invocation_id = %v, want %q", entry["invocation_id"], ti.ID)
	}
	if entry["resource"] != "todoagenda" {
		t.Errorf("resource = %v, want todoagenda", entry["resource"])
	}
	if entry["results"] != float64(3) {
		t.Errorf("results = %v, want 3", entry["results"])
	}
}

func TestAuditLogger_LogToolInvocation_Failure(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLogger(logger)

	al.LogToolInvocation(NewToolInvocation(testToolGet).CompleteWithError(errors.New("boom")))

	entry := decodeLog(t, buf)
	if entry["msg"] != "tool_failed" {
		t.Errorf("msg = %v, want tool_failed", entry["msg"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
	if _, ok := entry["results"]; ok {
		t.Error("failed invocations should not report a result count")
	}
}

func TestAuditLogger_IncludeArguments(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludeArguments: true})

	al.LogToolInvocation(NewToolInvocation(testToolSearch).
		WithArguments(map[string]any{"search": testQuery}).
		CompleteSuccess())

	if !strings.Contains(buf.String(), testQuery) {
		t.Errorf("expected raw arguments in audit log, got %s", buf.String())
	}

	buf.Reset()
	al.SetIncludeArguments(false)
	al.LogToolInvocation(NewToolInvocation(testToolSearch).
		WithArguments(map[string]any{"search": testQuery}).
		CompleteSuccess())

	if strings.Contains(buf.String(), testQuery) {
		t.Errorf("expected redacted arguments, got %s", buf.String())
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	logger, buf := newBufferLogger()
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	al.LogToolInvocation(NewToolInvocation(testToolSearch).CompleteSuccess())
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}

	al.SetEnabled(true)
	al.LogToolInvocation(NewToolInvocation(testToolSearch).CompleteSuccess())
	if buf.Len() == 0 {
		t.Error("expected output after enabling audit logger")
	}
}

func TestAuditLogger_Nil(t *testing.T) {
	var al *AuditLogger
	// Should not panic
	al.LogToolInvocation(NewToolInvocation(testToolSearch).CompleteSuccess())
}

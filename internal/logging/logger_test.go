package logging

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(format string) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(io.Writer(buf), levelVar)
	} else {
		handler = newConsoleHandler(io.Writer(buf), levelVar)
	}
	return slog.New(handler), buf
}

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	logger, buf := newBufferLogger("console")
	logger = NewComponentLogger(logger, "workflow")
	logger.Info("stage complete", Int64(FieldEditionID, 42), String(FieldStage, "preview"))

	line := buf.String()
	if !strings.Contains(line, " INFO workflow: stage complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "edition_id=42") || !strings.Contains(line, "stage=preview") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger("console")
	logger.Warn("failure recorded", String("message", "render worker timed out"))
	if !strings.Contains(buf.String(), `message="render worker timed out"`) {
		t.Fatalf("unexpected line: %q", buf.String())
	}
}

func TestJSONHandlerLowercasesLevel(t *testing.T) {
	logger, buf := newBufferLogger("json")
	logger.Error("boom")
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("unexpected json: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

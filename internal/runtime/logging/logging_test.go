package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestSlogServiceLoggerWritesLevelsAndFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, "trace", "json")

	logger.Trace("trace-msg", LogFields{"subject": "handshake"})
	logger.Debug("debug-msg", nil)
	logger.Info("info-msg", nil)
	logger.Warn("warn-msg", LogFields{"type": "bogus"})
	logger.Error("error-msg", errors.New("boom"), nil)

	out := buf.String()
	for _, want := range []string{"trace-msg", "debug-msg", "info-msg", "warn-msg", "error-msg", `"subject":"handshake"`, `"err":"boom"`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSlogServiceLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, "warn", "text")

	logger.Info("hidden", nil)
	logger.Warn("shown", nil)

	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("expected info to be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatal("expected warn to be written")
	}
}

func TestSlogServiceLoggerWith(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, "info", "json").With(LogFields{"component": "client"})
	if same := logger.With(nil); same != logger {
		t.Fatal("expected With(nil) to return the same logger")
	}

	logger.Info("hello", nil)
	if !strings.Contains(buf.String(), `"component":"client"`) {
		t.Fatalf("expected inherited field, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":    LevelTrace,
		"DEBUG":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"":         slog.LevelInfo,
		"nonsense": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSlogLoggerPanicsOnNil(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when slog logger nil")
		}
	}()
	NewSlogServiceLogger(nil)
}

func TestWatermillServiceLoggerDelegates(t *testing.T) {
	base := newRecordingWatermillLogger()
	logger := NewWatermillServiceLogger(base)

	logger.Debug("dbg", LogFields{"component": "watermill"})
	logger.Info("info", nil)
	logger.Warn("warn", LogFields{"k": "v"})
	logger.Trace("trace", LogFields{"trace": true})
	logger.Error("oops", errors.New("boom"), LogFields{"failed": true})

	logger.With(LogFields{"child": "yes"}).Info("child_info", nil)

	if len(base.entries) != 7 {
		t.Fatalf("expected 7 log entries, got %d", len(base.entries))
	}
	if base.entries[0].level != "debug" || base.entries[0].fields["component"] != "watermill" {
		t.Fatalf("unexpected first entry: %#v", base.entries[0])
	}
	if base.entries[2].level != "info" || base.entries[2].fields["severity"] != "warn" || base.entries[2].fields["k"] != "v" {
		t.Fatalf("expected warn mapped to info with severity, got %#v", base.entries[2])
	}
	if base.entries[5].fields["child"] != "yes" {
		t.Fatalf("expected With to propagate fields, got %#v", base.entries[5].fields)
	}
}

func TestWatermillServiceLoggerPanicsOnNilLogger(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when logger nil")
		}
	}()
	NewWatermillServiceLogger(nil)
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	logger.With(LogFields{"a": 1}).Warn("ignored", nil)
	logger.Error("ignored", errors.New("x"), nil)
}

func TestWatermillAdapterDelegates(t *testing.T) {
	base := &recordingServiceLogger{}
	adapter := NewWatermillAdapter(base)

	adapter.Debug("dbg", watermill.LogFields{"k": "v"})
	adapter.Info("info", nil)
	adapter.Trace("trace", nil)
	adapter.Error("err", errors.New("boom"), nil)

	child := adapter.With(watermill.LogFields{"child": "yes"})
	typedChild, ok := child.(*serviceLoggerAdapter)
	if !ok {
		t.Fatal("expected service logger adapter child")
	}
	childBase, ok := typedChild.base.(*recordingServiceLogger)
	if !ok {
		t.Fatal("expected recording service logger child base")
	}
	child.Info("child_info", nil)

	if len(base.entries) != 4 {
		t.Fatalf("expected 4 delegated entries on base, got %d", len(base.entries))
	}
	if len(childBase.entries) != 2 {
		t.Fatalf("expected child logger to record entries, got %d", len(childBase.entries))
	}
	if childBase.entries[0].fields["child"] != "yes" {
		t.Fatalf("expected child fields to be preserved")
	}
}

func TestWatermillAdapterPanicsOnNil(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when adapter nil")
		}
	}()
	NewWatermillAdapter(nil)
}

func TestWatermillFieldConversions(t *testing.T) {
	if toWatermillFields(nil) != nil {
		t.Fatal("expected nil conversion to return nil")
	}
	if fromWatermillFields(nil) != nil {
		t.Fatal("expected nil conversion to return nil")
	}
	if lf := fromWatermillFields(toWatermillFields(LogFields{"a": 1})); lf["a"].(int) != 1 {
		t.Fatalf("unexpected log fields: %#v", lf)
	}
}

type recordingWatermillLogger struct {
	entries []watermillEntry
	sink    *[]watermillEntry
}

type watermillEntry struct {
	level  string
	fields watermill.LogFields
	err    error
}

func newRecordingWatermillLogger() *recordingWatermillLogger {
	logger := &recordingWatermillLogger{}
	logger.sink = &logger.entries
	return logger
}

func (r *recordingWatermillLogger) record(entry watermillEntry) {
	*r.sink = append(*r.sink, entry)
}

func (r *recordingWatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	r.record(watermillEntry{level: "error", fields: fields, err: err})
}

func (r *recordingWatermillLogger) Info(msg string, fields watermill.LogFields) {
	r.record(watermillEntry{level: "info", fields: fields})
}

func (r *recordingWatermillLogger) Debug(msg string, fields watermill.LogFields) {
	r.record(watermillEntry{level: "debug", fields: fields})
}

func (r *recordingWatermillLogger) Trace(msg string, fields watermill.LogFields) {
	r.record(watermillEntry{level: "trace", fields: fields})
}

func (r *recordingWatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	child := &recordingWatermillLogger{sink: r.sink}
	child.record(watermillEntry{level: "with", fields: fields})
	return child
}

type recordingServiceLogger struct {
	entries []loggedEntry
}

type loggedEntry struct {
	level  string
	msg    string
	fields LogFields
	err    error
}

func (r *recordingServiceLogger) With(fields LogFields) ServiceLogger {
	return &recordingServiceLogger{entries: []loggedEntry{{level: "with", fields: fields}}}
}

func (r *recordingServiceLogger) Debug(msg string, fields LogFields) {
	r.entries = append(r.entries, loggedEntry{level: "debug", msg: msg, fields: fields})
}

func (r *recordingServiceLogger) Info(msg string, fields LogFields) {
	r.entries = append(r.entries, loggedEntry{level: "info", msg: msg, fields: fields})
}

func (r *recordingServiceLogger) Warn(msg string, fields LogFields) {
	r.entries = append(r.entries, loggedEntry{level: "warn", msg: msg, fields: fields})
}

func (r *recordingServiceLogger) Error(msg string, err error, fields LogFields) {
	r.entries = append(r.entries, loggedEntry{level: "error", msg: msg, fields: fields, err: err})
}

func (r *recordingServiceLogger) Trace(msg string, fields LogFields) {
	r.entries = append(r.entries, loggedEntry{level: "trace", msg: msg, fields: fields})
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"artnode/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"error", false},
		{"loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := NewLogger(config.LogConf{Level: tt.level})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l.GetLevel() != tt.level {
				t.Errorf("GetLevel() = %q, want %q", l.GetLevel(), tt.level)
			}
		})
	}
}

func TestNewLogger_UnknownFormat(t *testing.T) {
	if _, err := NewLogger(config.LogConf{Level: "info", Format: "xml"}); err == nil {
		t.Error("NewLogger() accepted unknown format")
	}
}

func TestLog_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(config.LogConf{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("newLogger() returned error: %v", err)
	}

	l.Module("node").With(Fields{"universe": "0.0.1"}).Info("patched")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["module"] != "node" {
		t.Errorf("module = %v, want node", entry["module"])
	}
	if entry["universe"] != "0.0.1" {
		t.Errorf("universe = %v, want 0.0.1", entry["universe"])
	}
	if entry["msg"] != "patched" {
		t.Errorf("msg = %v, want patched", entry["msg"])
	}
}

func TestLog_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(config.LogConf{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("newLogger() returned error: %v", err)
	}

	l.Debug("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn line missing")
	}
}

func TestNewDiscard(t *testing.T) {
	l := NewDiscard()
	l.Module("x").Error("dropped")

	var _ Logger = l
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artnode.log")
	l, err := NewLogger(config.LogConf{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("NewLogger() returned error: %v", err)
	}

	l.Info("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q, want the entry", data)
	}
}

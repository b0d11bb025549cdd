package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_WritesToEverySink(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	fileWriter, err := NewFileWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	defer fileWriter.Close()

	var console bytes.Buffer
	Setup(false, &console, fileWriter)

	log.Debug().Msg("hidden")
	log.Info().Str("kpi", "oee").Msg("recorded")

	if strings.Contains(console.String(), "hidden") {
		t.Error("Expected debug output to be suppressed without verbose")
	}
	if !strings.Contains(console.String(), `"kpi":"oee"`) {
		t.Errorf("Expected structured field in console sink, got %q", console.String())
	}

	raw, err := os.ReadFile(fileWriter.Filename)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "recorded") {
		t.Errorf("Expected message in %s, got %q", FileName, raw)
	}

	Setup(true, &console)
	log.Debug().Msg("now visible")
	if !strings.Contains(console.String(), "now visible") {
		t.Error("Expected debug output with verbose")
	}
}

func TestNewFileWriter_Unwritable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileWriter(filepath.Join(blocker, "logs")); err == nil {
		t.Error("Expected an error when the log directory cannot be created")
	}
}

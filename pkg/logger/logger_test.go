package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", "json", &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("Info should be filtered at warn level, got %s", buf.String())
	}

	log.Warn().Msg("kept")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line: %v", err)
	}
	if entry["service"] != Service || entry["message"] != "kept" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}

func TestInitUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("chatty", "json", &buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %s", zerolog.GlobalLevel())
	}
}

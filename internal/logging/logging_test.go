package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInitWriterFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer func() { Logger = Logger.Output(&bytes.Buffer{}) }()

	Info().Str("windowId", "w1").Msg("focused")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "focused" {
		t.Errorf("msg = %v, want focused", entry["msg"])
	}
	if entry["windowId"] != "w1" {
		t.Errorf("windowId = %v, want w1", entry["windowId"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("expected ts field from timestamp hook")
	}
}

func TestSetDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer SetDebug(false)

	Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}

	SetDebug(true)
	Debug().Msg("shown")
	if buf.Len() == 0 {
		t.Error("debug line not written after SetDebug(true)")
	}
}

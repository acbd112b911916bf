package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func jsonLogger(buf *bytes.Buffer) zerolog.Logger {
	return zerolog.New(buf).Level(zerolog.DebugLevel)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line not JSON: %q: %v", line, err)
	}
	return entry
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(jsonLogger(&buf), "market")
	logger.Info().Msg("hello")

	entry := decodeLine(t, &buf)
	if entry["component"] != "market" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestWithSymbol(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSymbol(jsonLogger(&buf), "HPG")
	logger.Info().Msg("hello")

	entry := decodeLine(t, &buf)
	if entry["symbol"] != "HPG" {
		t.Errorf("symbol = %v", entry["symbol"])
	}
}

func TestLogQuestion(t *testing.T) {
	var buf bytes.Buffer
	LogQuestion(jsonLogger(&buf), "Giá VCB?", true)

	entry := decodeLine(t, &buf)
	if entry["event"] != "question" || entry["question"] != "Giá VCB?" || entry["use_llm"] != true {
		t.Errorf("entry = %v", entry)
	}
}

func TestLogIntent(t *testing.T) {
	var buf bytes.Buffer
	LogIntent(jsonLogger(&buf), "price_history", []string{"VCB", "HPG"}, "2024-01-01", "2024-01-31")

	entry := decodeLine(t, &buf)
	if entry["event"] != "intent" || entry["action"] != "price_history" {
		t.Errorf("entry = %v", entry)
	}
	if entry["start"] != "2024-01-01" || entry["end"] != "2024-01-31" {
		t.Errorf("range = %v..%v", entry["start"], entry["end"])
	}
}

func TestLogAPICall(t *testing.T) {
	var buf bytes.Buffer
	LogAPICall(jsonLogger(&buf), "tcbs", "history", 10*time.Millisecond, nil)

	entry := decodeLine(t, &buf)
	if entry["event"] != "api_call" || entry["provider"] != "tcbs" || entry["operation"] != "history" {
		t.Errorf("entry = %v", entry)
	}
	if entry["level"] != "debug" {
		t.Errorf("success level = %v, want debug", entry["level"])
	}
}

func TestLogAPICallFailure(t *testing.T) {
	var buf bytes.Buffer
	LogAPICall(jsonLogger(&buf), "tcbs", "history", time.Millisecond, errors.New("boom"))

	entry := decodeLine(t, &buf)
	if entry["level"] != "error" {
		t.Errorf("failure level = %v, want error", entry["level"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
}

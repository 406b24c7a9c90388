package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != logrus.DebugLevel {
		t.Error("Expected debug level")
	}
	if ParseLevel("loud") != logrus.InfoLevel {
		t.Error("Expected unknown levels to fall back to info")
	}
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	l := &Logger{entry: logrus.NewEntry(base).WithField("service_name", "test")}

	l.WithUser("alice").Info("first")
	l.Info("second")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	var first, second map[string]interface{}
	json.Unmarshal(lines[0], &first)
	json.Unmarshal(lines[1], &second)
	if first["user_id"] != "alice" {
		t.Errorf("Expected user_id on the derived logger, got %v", first["user_id"])
	}
	if _, ok := second["user_id"]; ok {
		t.Error("The receiver must not gain fields from With*")
	}
}

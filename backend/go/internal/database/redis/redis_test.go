package redis

import "testing"

func TestKey(t *testing.T) {
	if got := Key("recall", "facts", "alice"); got != "recall:facts:alice" {
		t.Errorf("Key() = %s", got)
	}
	if got := Key("", "anomaly", "bob"); got != "anomaly:bob" {
		t.Errorf("Key() without prefix = %s", got)
	}
}

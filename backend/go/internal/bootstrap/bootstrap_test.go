package bootstrap

import (
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"errors"
	"testing"
)

func TestHealth(t *testing.T) {
	c := &Components{log: logger.Discard()}
	c.onHealth("redis", func(context.Context) error { return nil })
	c.onHealth("mongo", func(context.Context) error { return errors.New("connection refused") })

	got := c.Health(context.Background())
	if len(got) != 2 || got["redis"] != "ok" || got["mongo"] != "connection refused" {
		t.Errorf("Health() = %v", got)
	}
}

func TestCloseRunsInReverseOrder(t *testing.T) {
	c := &Components{log: logger.Discard()}
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		c.onClose(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	c.onClose("failing", func(context.Context) error { return errors.New("boom") })

	c.Close(context.Background())
	if len(order) != 3 || order[0] != "third" || order[2] != "first" {
		t.Errorf("close order = %v", order)
	}
	c.Close(context.Background())
	if len(order) != 3 {
		t.Errorf("second Close ran closers again: %v", order)
	}
}

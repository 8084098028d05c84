package eventbus

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewRejectsInvalidURL(t *testing.T) {
	_, err := New("not a url\x00", "pool-events", zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error for an invalid redis URL")
	}
}

func TestPublishDoesNotBlockWhenQueueFull(t *testing.T) {
	c, err := New("redis://127.0.0.1:1", "pool-events", zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	// The background publisher will keep failing to reach 127.0.0.1:1, so
	// the queue backs up — publish must still return immediately rather
	// than block the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 2000; i++ {
			c.publish("lease", "r1", time.Now())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked despite a full queue")
	}
}

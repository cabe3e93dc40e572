package util

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type tempErr struct{ temp bool }

func (e tempErr) Error() string   { return fmt.Sprintf("temporary=%v", e.temp) }
func (e tempErr) Temporary() bool { return e.temp }

func fastRetrier(tries int) *Retrier {
	r := NewRetrier(tries)
	r.InitialInterval = time.Millisecond
	r.MaxInterval = time.Millisecond * 5
	return r
}

func TestRetryTemporary(t *testing.T) {
	r := fastRetrier(3)

	i := 0
	err := r.Retry(context.Background(), func() error {
		i++
		return tempErr{true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if i != 3 {
		t.Error("unexpected number of attempts", i)
	}
}

func TestRetryPermanent(t *testing.T) {
	r := fastRetrier(3)

	i := 0
	err := r.Retry(context.Background(), func() error {
		i++
		return fmt.Errorf("wrapped: %w", tempErr{false})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if i != 1 {
		t.Error("unexpected number of attempts", i)
	}
}

func TestRetrySucceeds(t *testing.T) {
	r := fastRetrier(5)

	i := 0
	err := r.Retry(context.Background(), func() error {
		i++
		if i < 3 {
			return tempErr{true}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if i != 3 {
		t.Error("unexpected number of attempts", i)
	}
}

func TestIsTemporary(t *testing.T) {
	if !IsTemporary(fmt.Errorf("ctx: %w", tempErr{true})) {
		t.Error("expected wrapped temporary error to be temporary")
	}
	if IsTemporary(errors.New("plain")) {
		t.Error("plain errors are not temporary")
	}
}

func TestSafeID(t *testing.T) {
	if got := SafeID("jane doe/ndvi.1"); got != "jane_doe_ndvi_1" {
		t.Error("unexpected safe id", got)
	}
	if a, b := GenID(), GenID(); a == b {
		t.Error("expected unique ids", a, b)
	}
}

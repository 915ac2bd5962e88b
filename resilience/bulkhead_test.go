package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBulkheadAcquireRelease(t *testing.T) {
	rejected := 0
	b := NewBulkhead(BulkheadConfig{Name: "rpc", MaxConcurrent: 2, OnReject: func(string) { rejected++ }})
	ctx := context.Background()

	r1, err := b.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := b.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Acquire(ctx); err != ErrBulkheadFull {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if rejected != 1 {
		t.Errorf("rejected = %d", rejected)
	}

	r1()
	r1()
	if b.InUse() != 1 || b.Available() != 1 {
		t.Errorf("double release must free one slot: in use %d", b.InUse())
	}
	r2()
	if b.InUse() != 0 {
		t.Errorf("in use = %d", b.InUse())
	}
}

func TestBulkheadWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	release, _ := b.Acquire(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		release()
	}()
	r, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("waiting acquire failed: %v", err)
	}
	r()
}

func TestBulkheadWaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 5 * time.Millisecond})
	_, _ = b.Acquire(context.Background())
	if _, err := b.Acquire(context.Background()); err != ErrBulkheadTimeout {
		t.Errorf("expected timeout, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b2 := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Hour})
	_, _ = b2.Acquire(context.Background())
	if _, err := b2.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestBulkheadExecute(t *testing.T) {
	b := NewBulkhead(DefaultBulkheadConfig("x"))
	want := errors.New("inner")
	if err := b.Execute(context.Background(), func() error {
		if b.InUse() != 1 {
			t.Errorf("in use during call = %d", b.InUse())
		}
		return want
	}); err != want {
		t.Errorf("Execute = %v", err)
	}
	if b.InUse() != 0 {
		t.Errorf("slot not released")
	}
}

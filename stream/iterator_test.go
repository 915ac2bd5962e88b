package stream

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIteratorNext(t *testing.T) {
	it := Open(context.Background(), &fakeTransport{ex: scripted(growing("1\n", "2\n3")...)}, Request{}, Int(), quiet())
	defer it.Close()

	ctx := context.Background()
	var got []int64
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if !equalSlices(got, []int64{1, 2, 3}) {
		t.Errorf("values = %v", got)
	}
	if _, ok, err := it.Next(ctx); ok || err != nil {
		t.Errorf("Next after end = %v, %v", ok, err)
	}
	if it.ID() == "" {
		t.Error("iterator should expose the session id")
	}
}

func TestIteratorError(t *testing.T) {
	it := Open(context.Background(), &fakeTransport{ex: scripted(growing("1\nnope\n2\n")...)}, Request{}, Int(), quiet())
	defer it.Close()

	ctx := context.Background()
	v, ok, err := it.Next(ctx)
	if err != nil || !ok || v != 1 {
		t.Fatalf("first Next = %v, %v, %v", v, ok, err)
	}
	_, ok, err = it.Next(ctx)
	if ok || !IsConversion(err) {
		t.Fatalf("second Next = %v, %v", ok, err)
	}
	_, _, again := it.Next(ctx)
	if again != err {
		t.Errorf("error should be sticky, got %v", again)
	}
}

func TestIteratorAll(t *testing.T) {
	it := Open(context.Background(), &fakeTransport{ex: scripted(growing("a\nb\nc\n")...)}, Request{}, Text(), quiet())
	defer it.Close()

	var got []string
	for v, err := range it.All() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, v)
	}
	if !equalSlices(got, []string{"a", "b", "c"}) {
		t.Errorf("values = %q", got)
	}
	for range it.All() {
		t.Error("second range must yield nothing")
	}
}

func TestIteratorAllYieldsError(t *testing.T) {
	tr := &fakeTransport{ex: scripted(Update{StatusCode: 500, StatusText: "Internal Server Error", Snapshot: []byte("boom"), Final: true})}
	it := Open(context.Background(), tr, Request{}, Int(), quiet())
	defer it.Close()

	var errs []error
	for _, err := range it.All() {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !IsStatus(errs[0]) {
		t.Fatalf("errs = %v", errs)
	}
	var se *Error
	errors.As(errs[0], &se)
	if se.StatusCode != 500 || se.Reason != "Internal Server Error: boom" {
		t.Errorf("unexpected error %+v", se)
	}
}

func TestIteratorBreakCloses(t *testing.T) {
	ex := newFakeExchange(0)
	it := Open(context.Background(), &fakeTransport{ex: ex}, Request{}, Int(), quiet())
	go func() {
		ex.updates <- Update{StatusCode: 200, Snapshot: []byte("1\n2\n3\n")}
	}()

	for v, err := range it.All() {
		if err != nil {
			t.Fatal(err)
		}
		if v == 1 {
			break
		}
	}
	if _, closed := ex.isClosed(); !closed {
		t.Error("breaking out of All should close the exchange")
	}
	if it.sub.session.State() != StateAbandoned {
		t.Errorf("state = %s", it.sub.session.State())
	}
}

func TestIteratorParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ex := newFakeExchange(0)
	it := Open(ctx, &fakeTransport{ex: ex}, Request{}, Int(), quiet())
	defer it.Close()

	cancel()
	_, ok, err := it.Next(context.Background())
	if ok || !errors.Is(err, context.Canceled) {
		t.Errorf("Next after cancel = %v, %v", ok, err)
	}
}

func TestIteratorNextTimeout(t *testing.T) {
	ex := newFakeExchange(0)
	it := Open(context.Background(), &fakeTransport{ex: ex}, Request{}, Int(), quiet())
	defer it.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := it.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type speakCall struct {
	text      string
	interrupt bool
}

// recordingBackend records every Speak call. When gate is set each call
// announces itself on started and then waits for a token on gate.
type recordingBackend struct {
	mu     sync.Mutex
	calls  []speakCall
	fail   map[string]error
	panics map[string]bool
	closed bool

	started chan string
	gate    chan struct{}
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		fail:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (b *recordingBackend) Speak(text string, interrupt bool) error {
	b.mu.Lock()
	b.calls = append(b.calls, speakCall{text: text, interrupt: interrupt})
	err := b.fail[text]
	shouldPanic := b.panics[text]
	b.mu.Unlock()

	if b.started != nil {
		b.started <- text
	}
	if b.gate != nil {
		<-b.gate
	}
	if shouldPanic {
		panic("boom")
	}
	return err
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *recordingBackend) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.text
	}
	return out
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func startWith(t *testing.T, b *recordingBackend, opts ...Option) *Handle {
	t.Helper()
	opts = append([]Option{
		WithPlatform(PlatformLinux),
		WithLogger(quietLogger()),
		WithBackend(func() (Backend, error) { return b, nil }),
	}, opts...)
	h, err := Start(opts...)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return h
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("speech worker did not terminate")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartUnsupportedPlatform(t *testing.T) {
	called := false
	factory := func() (Backend, error) {
		called = true
		return newRecordingBackend(), nil
	}

	h, err := Start(
		WithPlatform(PlatformDarwin),
		WithLogger(quietLogger()),
		WithBackend(factory),
	)
	if h != nil {
		t.Error("Expected no handle on an unsupported platform")
	}
	if !errors.Is(err, ErrPlatformUnsupported) {
		t.Errorf("Expected ErrPlatformUnsupported, got %v", err)
	}
	if called {
		t.Error("Backend factory must not be called on an unsupported platform")
	}
}

func TestInitUnavailable(t *testing.T) {
	cause := errors.New("no speech daemon")

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name: "unsupported platform",
			opts: []Option{
				WithPlatform(PlatformDarwin),
				WithBackend(func() (Backend, error) { return newRecordingBackend(), nil }),
			},
			wantErr: ErrPlatformUnsupported,
		},
		{
			name: "backend init failure",
			opts: []Option{
				WithPlatform(PlatformLinux),
				WithBackend(func() (Backend, error) { return nil, cause }),
			},
			wantErr: cause,
		},
		{
			name: "nil backend",
			opts: []Option{
				WithPlatform(PlatformLinux),
				WithBackend(func() (Backend, error) { return nil, nil }),
			},
			wantErr: ErrBackendInit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append(tt.opts, WithLogger(quietLogger()))
			if h := Init(opts...); h != nil {
				t.Fatal("Expected Init to return nil")
			}

			_, err := Start(opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBackendInitErrorWrapsCause(t *testing.T) {
	cause := errors.New("espeak not found")
	_, err := Start(
		WithPlatform(PlatformLinux),
		WithLogger(quietLogger()),
		WithBackend(func() (Backend, error) { return nil, cause }),
	)

	var initErr *BackendInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("Expected *BackendInitError, got %T", err)
	}
	if !errors.Is(err, ErrBackendInit) {
		t.Error("Expected errors.Is(err, ErrBackendInit)")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the factory error to be wrapped")
	}
}

func TestDisabledPathWhenUnavailable(t *testing.T) {
	h := Init(
		WithPlatform(PlatformLinux),
		WithLogger(quietLogger()),
		WithBackend(func() (Backend, error) { return nil, errors.New("unavailable") }),
	)

	spoken := false
	if h != nil {
		spoken = h.Say("hello") == nil
	}
	if spoken {
		t.Error("Expected the disabled path to be taken")
	}
}

func TestNilHandleIsSafe(t *testing.T) {
	var h *Handle

	if err := h.Say("hello"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Say, got %v", err)
	}
	if err := h.Enqueue(NewUtterance("hello")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Enqueue, got %v", err)
	}
	if err := h.EnqueueWait(context.Background(), NewUtterance("hello")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from EnqueueWait, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Expected nil from Close, got %v", err)
	}
}

func TestGreetingSpokenOnceBeforeQueuedItems(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)

	if err := h.Say("Hello"); err != nil {
		t.Fatalf("Say failed: %v", err)
	}
	if err := h.Say("World"); err != nil {
		t.Fatalf("Say failed: %v", err)
	}
	h.Close()
	waitDone(t, h)

	b.mu.Lock()
	defer b.mu.Unlock()

	want := []speakCall{
		{text: DefaultGreeting, interrupt: true},
		{text: "Hello", interrupt: true},
		{text: "World", interrupt: true},
	}
	if len(b.calls) != len(want) {
		t.Fatalf("Expected %d calls, got %d: %v", len(want), len(b.calls), b.calls)
	}
	for i := range want {
		if b.calls[i] != want[i] {
			t.Errorf("Call %d: expected %+v, got %+v", i, want[i], b.calls[i])
		}
	}
}

func TestCustomGreeting(t *testing.T) {
	tests := []struct {
		greeting string
		want     string
	}{
		{greeting: "Hello from the build box", want: "Hello from the build box"},
		{greeting: "", want: DefaultGreeting},
	}

	for _, tt := range tests {
		b := newRecordingBackend()
		h := startWith(t, b, WithGreeting(tt.greeting))
		h.Close()
		waitDone(t, h)

		got := b.texts()
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("greeting %q: expected [%q], got %v", tt.greeting, tt.want, got)
		}
	}
}

func TestFIFOOrder(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	want := []string{DefaultGreeting}
	for i := 0; i < 25; i++ {
		text := fmt.Sprintf("utterance %d", i)
		if err := h.EnqueueWait(ctx, NewUtterance(text)); err != nil {
			t.Fatalf("EnqueueWait failed: %v", err)
		}
		want = append(want, text)
	}
	h.Close()
	waitDone(t, h)

	if got := b.texts(); !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEnqueueFullWhenAtCapacity(t *testing.T) {
	b := newRecordingBackend()
	b.started = make(chan string, 16)
	b.gate = make(chan struct{})
	h := startWith(t, b)

	// Hold the worker inside the greeting so nothing is drained.
	select {
	case <-b.started:
	case <-time.After(time.Second):
		t.Fatal("greeting was not spoken")
	}

	var fullCount int
	var admitted []string
	for i := 0; i < Capacity+1; i++ {
		text := fmt.Sprintf("event %d", i)
		switch err := h.Say(text); {
		case err == nil:
			admitted = append(admitted, text)
		case errors.Is(err, ErrFull):
			fullCount++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if fullCount == 0 {
		t.Error("Expected at least one ErrFull")
	}
	if len(admitted) != Capacity {
		t.Errorf("Expected %d admitted utterances, got %d", Capacity, len(admitted))
	}
	if s := h.Stats(); s.Dropped != uint64(fullCount) || s.Queued != Capacity {
		t.Errorf("Unexpected stats: %+v", s)
	}

	close(b.gate)
	h.Close()
	waitDone(t, h)

	want := append([]string{DefaultGreeting}, admitted...)
	if got := b.texts(); !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestBackendFailureDoesNotStopWorker(t *testing.T) {
	b := newRecordingBackend()
	b.fail["two"] = errors.New("synthesis failed")
	b.fail[DefaultGreeting] = errors.New("greeting failed")
	h := startWith(t, b)

	for _, text := range []string{"one", "two", "three"} {
		if err := h.Say(text); err != nil {
			t.Fatalf("Say(%q) failed: %v", text, err)
		}
	}
	h.Close()
	waitDone(t, h)

	want := []string{DefaultGreeting, "one", "two", "three"}
	if got := b.texts(); !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	s := h.Stats()
	if s.Spoken != 2 || s.Failed != 1 {
		t.Errorf("Expected 2 spoken and 1 failed, got %+v", s)
	}
}

func TestBackendPanicIsRecovered(t *testing.T) {
	b := newRecordingBackend()
	b.panics["bad"] = true
	h := startWith(t, b)

	_ = h.Say("bad")
	_ = h.Say("good")
	h.Close()
	waitDone(t, h)

	want := []string{DefaultGreeting, "bad", "good"}
	if got := b.texts(); !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if s := h.Stats(); s.Failed != 1 || s.Spoken != 1 {
		t.Errorf("Unexpected stats: %+v", s)
	}
}

func TestWorkerTerminatesAfterClose(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	waitDone(t, h)

	if state := h.State(); state != StateTerminated {
		t.Errorf("Expected terminated state, got %s", state)
	}
	if err := h.Say("too late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if !closed {
		t.Error("Expected backend to be closed by the worker")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestCloneKeepsQueueOpen(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)
	c := h.Clone()

	h.Close()
	if err := h.Say("from closed handle"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from released handle, got %v", err)
	}
	if err := c.Say("from clone"); err != nil {
		t.Errorf("Clone should still enqueue, got %v", err)
	}

	select {
	case <-h.Done():
		t.Fatal("Worker exited while a clone was still open")
	case <-time.After(20 * time.Millisecond):
	}

	c.Close()
	waitDone(t, c)

	want := []string{DefaultGreeting, "from clone"}
	if got := b.texts(); !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	late := c.Clone()
	if err := late.Say("nope"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected clone of closed handle to be closed, got %v", err)
	}
	late.Close()
}

func TestEnqueueWaitBlocksUntilSpace(t *testing.T) {
	b := newRecordingBackend()
	b.started = make(chan string, 16)
	b.gate = make(chan struct{}, 16)
	h := startWith(t, b)
	<-b.started

	for i := 0; i < Capacity; i++ {
		if err := h.Say(fmt.Sprintf("fill %d", i)); err != nil {
			t.Fatalf("Say failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := h.EnqueueWait(ctx, NewUtterance("waiting")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded on a full queue, got %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- h.EnqueueWait(context.Background(), NewUtterance("admitted"))
	}()

	// Release the greeting so the worker takes one item off the queue.
	b.gate <- struct{}{}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("EnqueueWait failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("EnqueueWait did not complete after space was made")
	}

	for i := 0; i < Capacity+1; i++ {
		b.gate <- struct{}{}
	}
	h.Close()
	waitDone(t, h)
}

func TestCloseWakesBlockedEnqueueWait(t *testing.T) {
	b := newRecordingBackend()
	b.started = make(chan string, 16)
	b.gate = make(chan struct{})
	h := startWith(t, b)
	<-b.started

	for i := 0; i < Capacity; i++ {
		_ = h.Say("fill")
	}

	done := make(chan error, 1)
	go func() {
		done <- h.EnqueueWait(context.Background(), NewUtterance("blocked"))
	}()

	time.Sleep(20 * time.Millisecond)
	h.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the blocked sender")
	}

	close(b.gate)
	waitDone(t, h)
}

func TestConcurrentProducers(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)

	const producers, perProducer = 8, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		c := h.Clone()
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			defer c.Close()
			for i := 0; i < perProducer; i++ {
				err := c.Say(fmt.Sprintf("p%d-%d", p, i))
				if err != nil && !errors.Is(err, ErrFull) {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()
	h.Close()
	waitDone(t, h)

	s := h.Stats()
	if s.Enqueued+s.Dropped != producers*perProducer {
		t.Errorf("Expected %d attempts, got %d enqueued + %d dropped",
			producers*perProducer, s.Enqueued, s.Dropped)
	}
	if s.Spoken != s.Enqueued {
		t.Errorf("Expected every admitted utterance spoken, got %d of %d", s.Spoken, s.Enqueued)
	}
}

func TestBackendName(t *testing.T) {
	b := newRecordingBackend()
	h := startWith(t, b)
	defer h.Close()

	if got := h.BackendName(); got != "recording" {
		t.Errorf("Expected backend name %q, got %q", "recording", got)
	}
}

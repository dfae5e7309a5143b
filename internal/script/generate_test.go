package script

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, user string) (string, error)
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.fn(n, user)
}

func (f *fakeCompleter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testGenerator(t *testing.T, c Completer) *Generator {
	t.Helper()
	g, err := NewGenerator(c, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	g.retry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
	return g
}

func TestGenerateWholeDocument(t *testing.T) {
	want := "HOST A: Welcome!\nHOST B: Glad to be here."
	fake := &fakeCompleter{fn: func(call int, user string) (string, error) {
		return "<thinking>outline</thinking>\n" + want, nil
	}}
	g := testGenerator(t, fake)

	got, err := g.Generate(context.Background(), "A short document about tides.", GenerateOptions{TargetMinutes: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if fake.count() != 1 {
		t.Errorf("made %d calls, want 1", fake.count())
	}
}

func TestGenerateChunkedFallbackKeepsOrder(t *testing.T) {
	para := func(word string) string { return strings.Repeat(word+" ", 13) }
	doc := para("alpha") + "\n\n" + para("bravo") + "\n\n" + para("charlie")

	fake := &fakeCompleter{fn: func(call int, user string) (string, error) {
		hasAlpha := strings.Contains(user, "alpha")
		hasCharlie := strings.Contains(user, "charlie")
		switch {
		case hasAlpha && hasCharlie:
			return "", &OversizeError{Body: "prompt is too long"}
		case hasAlpha:
			time.Sleep(30 * time.Millisecond) // first chunk finishes last
			return "HOST A: Opening segment.", nil
		case strings.Contains(user, "bravo"):
			time.Sleep(15 * time.Millisecond)
			return "HOST B: Middle segment.", nil
		case hasCharlie:
			return "HOST A: Closing segment.", nil
		}
		return "", errors.New("unexpected prompt")
	}}
	g := testGenerator(t, fake)
	g.maxChunkChars = 100

	got, err := g.Generate(context.Background(), doc, GenerateOptions{TargetMinutes: 10})
	if err != nil {
		t.Fatal(err)
	}
	iOpen := strings.Index(got, "Opening")
	iMid := strings.Index(got, "Middle")
	iClose := strings.Index(got, "Closing")
	if iOpen < 0 || iMid < 0 || iClose < 0 {
		t.Fatalf("missing segment in output:\n%s", got)
	}
	if !(iOpen < iMid && iMid < iClose) {
		t.Errorf("segments out of document order:\n%s", got)
	}
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	fake := &fakeCompleter{fn: func(call int, user string) (string, error) {
		if call < 3 {
			return "", &RateLimitError{Body: "429"}
		}
		return "HOST A: Finally.", nil
	}}
	g := testGenerator(t, fake)

	got, err := g.Generate(context.Background(), "doc", GenerateOptions{TargetMinutes: 5})
	if err != nil {
		t.Fatal(err)
	}
	if got != "HOST A: Finally." {
		t.Errorf("unexpected script: %q", got)
	}
	if fake.count() != 3 {
		t.Errorf("made %d calls, want 3", fake.count())
	}
}

func TestGenerateRateLimitExhausted(t *testing.T) {
	fake := &fakeCompleter{fn: func(call int, user string) (string, error) {
		return "", &RateLimitError{Body: "429"}
	}}
	g := testGenerator(t, fake)

	_, err := g.Generate(context.Background(), "doc", GenerateOptions{TargetMinutes: 5})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("want RateLimitError, got %v", err)
	}
	if fake.count() != g.retry.MaxAttempts {
		t.Errorf("made %d calls, want %d", fake.count(), g.retry.MaxAttempts)
	}
}

func TestGenerateQuotaIsTerminal(t *testing.T) {
	fake := &fakeCompleter{fn: func(call int, user string) (string, error) {
		return "", &QuotaError{Body: "credit balance too low"}
	}}
	g := testGenerator(t, fake)

	_, err := g.Generate(context.Background(), "doc", GenerateOptions{TargetMinutes: 5})
	var quota *QuotaError
	if !errors.As(err, &quota) {
		t.Fatalf("want QuotaError, got %v", err)
	}
	if fake.count() != 1 {
		t.Errorf("quota error retried: %d calls", fake.count())
	}
}

func TestGenerateTrimsFarOvershoot(t *testing.T) {
	long := dialogue(20, 20) // 400 words against a 100-word target
	fake := &fakeCompleter{fn: func(call int, user string) (string, error) {
		return long, nil
	}}
	g := testGenerator(t, fake)

	got, err := g.Generate(context.Background(), "doc", GenerateOptions{TargetMinutes: 1, WordsPerMinute: 100})
	if err != nil {
		t.Fatal(err)
	}
	if scriptWords(got) >= scriptWords(long) {
		t.Errorf("overshooting script was not trimmed: %d words", scriptWords(got))
	}
}

func TestAllocateBudgets(t *testing.T) {
	total := 2400
	for _, n := range []int{1, 2, 3, 5, 8} {
		budgets := allocateBudgets(total, n)
		if len(budgets) != n {
			t.Fatalf("n=%d: got %d budgets", n, len(budgets))
		}
		sum := 0
		for _, b := range budgets {
			sum += b
		}
		if sum < total-n || sum > total+n {
			t.Errorf("n=%d: budgets sum to %d, want ~%d", n, sum, total)
		}
		if n >= 3 {
			for i := 1; i < n-1; i++ {
				if budgets[0] <= budgets[i] || budgets[n-1] <= budgets[i] {
					t.Errorf("n=%d: edge budgets not largest: %v", n, budgets)
				}
			}
		}
	}
}

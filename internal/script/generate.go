package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/inkwave/pdfcast/internal/chunk"
	"github.com/inkwave/pdfcast/internal/throttle"
)

const (
	// singleCallMaxChars is the largest document attempted in one request;
	// anything bigger goes straight to chunked generation.
	singleCallMaxChars = 40000

	defaultMaxChunkChars = 24000
	defaultMaxChunks     = 12

	// maxConcurrentRequests and minRequestInterval pace chunk requests to
	// the generation provider.
	maxConcurrentRequests = 3
	minRequestInterval    = 1 * time.Second

	// generationTimeout bounds one generation call. Whole-document requests
	// on long inputs routinely run minutes.
	generationTimeout = 5 * time.Minute

	temperature = 0.7
)

// GenerateOptions bounds the episode being produced.
type GenerateOptions struct {
	TargetMinutes  int
	WordsPerMinute int // 0 means DefaultWordsPerMinute
}

func (o GenerateOptions) wordsPerMinute() int {
	if o.WordsPerMinute > 0 {
		return o.WordsPerMinute
	}
	return DefaultWordsPerMinute
}

// Generator produces a dialogue script from document text, attempting a
// single whole-document request first and falling back to chunked
// generation when the payload is too large.
type Generator struct {
	completer Completer
	limiter   *throttle.Limiter
	retry     RetryPolicy
	log       *slog.Logger

	maxChunkChars int
	maxChunks     int
}

// GeneratorLimits overrides the default chunking and request-pacing bounds.
// Zero values keep the defaults.
type GeneratorLimits struct {
	MaxChunkChars int
	MaxChunks     int
	MaxConcurrent int
	MinInterval   time.Duration
}

// NewGenerator creates a Generator over the given completion capability.
func NewGenerator(completer Completer, logger *slog.Logger) (*Generator, error) {
	return NewGeneratorWithLimits(completer, logger, GeneratorLimits{})
}

// NewGeneratorWithLimits is NewGenerator with explicit bounds, for callers
// driven by configuration.
func NewGeneratorWithLimits(completer Completer, logger *slog.Logger, lim GeneratorLimits) (*Generator, error) {
	if lim.MaxChunkChars <= 0 {
		lim.MaxChunkChars = defaultMaxChunkChars
	}
	if lim.MaxChunks <= 0 {
		lim.MaxChunks = defaultMaxChunks
	}
	if lim.MaxConcurrent <= 0 {
		lim.MaxConcurrent = maxConcurrentRequests
	}
	if lim.MinInterval <= 0 {
		lim.MinInterval = minRequestInterval
	}
	limiter, err := throttle.NewLimiter(lim.MaxConcurrent, lim.MinInterval)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		completer:     completer,
		limiter:       limiter,
		retry:         DefaultRetry,
		log:           logger,
		maxChunkChars: lim.MaxChunkChars,
		maxChunks:     lim.MaxChunks,
	}, nil
}

// Generate returns raw script text for the document. Word-count targets
// from a generative model are advisory; the only hard rule applied here is
// trimming a script that overshoots three times the target down to twice
// the target.
func (g *Generator) Generate(ctx context.Context, text string, opts GenerateOptions) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no document text to generate from")
	}
	targetWords := opts.TargetMinutes * opts.wordsPerMinute()
	if targetWords <= 0 {
		return "", fmt.Errorf("invalid duration target: %d minutes", opts.TargetMinutes)
	}

	if len(text) <= singleCallMaxChars {
		out, err := g.wholeDocument(ctx, text, targetWords)
		if err == nil {
			return g.enforceCeiling(out, opts), nil
		}
		var oversize *OversizeError
		if !errors.As(err, &oversize) {
			return "", err
		}
		g.log.InfoContext(ctx, "whole-document request too large, falling back to chunked generation",
			"chars", len(text))
	}

	out, err := g.chunked(ctx, text, targetWords)
	if err != nil {
		return "", err
	}
	return g.enforceCeiling(out, opts), nil
}

func (g *Generator) wholeDocument(ctx context.Context, text string, targetWords int) (string, error) {
	var out string
	err := g.retry.Run(ctx, func() error {
		cctx, cancel := context.WithTimeout(ctx, generationTimeout)
		defer cancel()
		res, err := g.completer.Complete(cctx, systemPrompt, buildUserPrompt(text, targetWords),
			maxTokensForWords(targetWords), temperature)
		if err != nil {
			return err
		}
		out = StripThinking(res)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// chunked splits the document, generates every chunk's dialogue through the
// throttler, and joins the results in original chunk order. Any chunk's
// terminal failure fails the whole generation; a partial script is never
// returned.
func (g *Generator) chunked(ctx context.Context, text string, targetWords int) (string, error) {
	chunks, err := chunk.Split(text, g.maxChunkChars, g.maxChunks)
	if err != nil {
		return "", fmt.Errorf("chunk document: %w", err)
	}
	budgets := allocateBudgets(targetWords, len(chunks))

	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]string, len(chunks))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, c := range chunks {
		wg.Add(1)
		go func(c chunk.Chunk) {
			defer wg.Done()
			err := g.retry.Run(gctx, func() error {
				return g.limiter.Do(gctx, func() error {
					cctx, ccancel := context.WithTimeout(gctx, generationTimeout)
					defer ccancel()
					res, err := g.completer.Complete(cctx, systemPrompt,
						buildChunkPrompt(c, budgets[c.Index]),
						maxTokensForWords(budgets[c.Index]), temperature)
					if err != nil {
						return err
					}
					results[c.Index] = StripThinking(res)
					return nil
				})
			})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d of %d: %w", c.Index+1, c.Total, err)
					cancel()
				}
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	if firstErr != nil {
		return "", firstErr
	}
	return strings.Join(results, "\n\n"), nil
}

// enforceCeiling trims scripts that run far past the target. Anything under
// three times the target is accepted as-is.
func (g *Generator) enforceCeiling(text string, opts GenerateOptions) string {
	wpm := opts.wordsPerMinute()
	est := EstimateMinutes(text, wpm)
	if est <= 3*float64(opts.TargetMinutes) {
		return text
	}
	g.log.Info("script far over duration target, trimming",
		"estimated_minutes", est, "target_minutes", opts.TargetMinutes)
	return TrimToTarget(text, 2*opts.TargetMinutes*wpm)
}

// allocateBudgets distributes the total word target across chunks. The
// first and last chunks carry extra weight (introduction and conclusion),
// early middle chunks slightly more than late ones, reflecting how document
// density is usually front-loaded. Weights are normalized so the budgets
// sum to the total.
func allocateBudgets(totalWords, n int) []int {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{totalWords}
	}

	weights := make([]float64, n)
	var sum float64
	for i := range weights {
		switch {
		case i == 0 || i == n-1:
			weights[i] = 1.15
		case i < n/2:
			weights[i] = 1.05
		default:
			weights[i] = 0.90
		}
		sum += weights[i]
	}

	budgets := make([]int, n)
	for i, w := range weights {
		budgets[i] = int(math.Round(float64(totalWords) * w / sum))
	}
	return budgets
}

func maxTokensForWords(words int) int64 {
	t := int64(words) * 3
	if t < 4096 {
		return 4096
	}
	if t > 32768 {
		return 32768
	}
	return t
}

package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"readest-ai-core/internal/ragerr"
)

type stubProvider struct {
	calls     int
	failTimes int
	vecs      [][]float32
	err       error
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.calls <= s.failTimes {
		return nil, errors.New("transient failure")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.vecs, nil
}

func (s *stubProvider) Dimension() int    { return 4 }
func (s *stubProvider) ModelName() string { return "stub" }

func fastPolicy() RetryPolicy {
	return RetryPolicy{PerAttemptTimeout: time.Second, MaxElapsedTime: 2 * time.Second, MaxAttempts: 5}
}

func TestRetryingProvider_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &stubProvider{failTimes: 2, vecs: [][]float32{{1, 2, 3, 4}}}
	p := NewRetryingProvider(inner, fastPolicy(), fastPolicy())

	vecs, err := p.EmbedMany(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("EmbedMany() error: %v", err)
	}
	if len(vecs) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vecs))
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts (2 failures + 1 success), got %d", inner.calls)
	}
}

func TestRetryingProvider_PermanentFailureAfterMaxAttempts(t *testing.T) {
	inner := &stubProvider{failTimes: 1000}
	p := NewRetryingProvider(inner, RetryPolicy{PerAttemptTimeout: time.Second, MaxElapsedTime: 2 * time.Second, MaxAttempts: 2}, fastPolicy())

	_, err := p.EmbedMany(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !ragerr.Is(err, ragerr.KindEmbeddingError) {
		t.Errorf("expected EmbeddingError kind, got %v", err)
	}
}

func TestRetryingProvider_CancellationShortCircuits(t *testing.T) {
	inner := &stubProvider{failTimes: 1000}
	p := NewRetryingProvider(inner, fastPolicy(), fastPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.EmbedMany(ctx, []string{"hello"})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !ragerr.Is(err, ragerr.KindIndexingAborted) {
		t.Errorf("expected IndexingAborted kind, got %v", err)
	}
}

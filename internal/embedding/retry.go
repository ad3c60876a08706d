package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"readest-ai-core/internal/ragerr"
)

// RetryPolicy configures withRetryAndTimeout. Defaults mirror the
// EMBEDDING policy described by this module's design: exponential
// backoff with jitter, capped attempts, per-attempt timeout.
type RetryPolicy struct {
	PerAttemptTimeout time.Duration
	MaxElapsedTime    time.Duration
	MaxAttempts       int
}

// SingleQueryPolicy is the EMBEDDING_SINGLE timeout used for query
// embeddings in hybridSearch.
func SingleQueryPolicy() RetryPolicy {
	return RetryPolicy{PerAttemptTimeout: 5 * time.Second, MaxElapsedTime: 15 * time.Second, MaxAttempts: 3}
}

// BatchPolicy is the EMBEDDING_BATCH timeout used for bulk embedding
// calls during indexing.
func BatchPolicy() RetryPolicy {
	return RetryPolicy{PerAttemptTimeout: 30 * time.Second, MaxElapsedTime: 2 * time.Minute, MaxAttempts: 5}
}

// RetryingProvider wraps a Provider with withRetryAndTimeout semantics:
// each call is bounded by a per-attempt timeout, retried with
// exponential backoff and jitter up to MaxAttempts/MaxElapsedTime, and
// forwards the caller's cancellation into every attempt so an
// in-flight request is interrupted on cancel. Non-retryable failures
// (ctx cancellation) short-circuit immediately.
type RetryingProvider struct {
	Provider
	batchPolicy  RetryPolicy
	singlePolicy RetryPolicy
}

// NewRetryingProvider wraps inner with the given batch/single retry
// policies.
func NewRetryingProvider(inner Provider, batchPolicy, singlePolicy RetryPolicy) *RetryingProvider {
	return &RetryingProvider{Provider: inner, batchPolicy: batchPolicy, singlePolicy: singlePolicy}
}

func (r *RetryingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := withRetryAndTimeout(ctx, r.singlePolicy, func(attemptCtx context.Context) error {
		vec, err := r.Provider.Embed(attemptCtx, text)
		if err != nil {
			return err
		}
		out = vec
		return nil
	})
	return out, err
}

func (r *RetryingProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := withRetryAndTimeout(ctx, r.batchPolicy, func(attemptCtx context.Context) error {
		vecs, err := r.Provider.EmbedMany(attemptCtx, texts)
		if err != nil {
			return err
		}
		out = vecs
		return nil
	})
	return out, err
}

// withRetryAndTimeout bounds each attempt of fn to policy's
// per-attempt timeout, retries with exponential backoff and jitter up
// to policy's attempt/elapsed-time caps, and stops immediately if ctx
// is cancelled rather than retrying a dead request.
func withRetryAndTimeout(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = policy.MaxElapsedTime
	attempts := 0

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(ragerr.Aborted("embedding.withRetryAndTimeout", err))
		}

		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, policy.PerAttemptTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return backoff.Permanent(ragerr.Aborted("embedding.withRetryAndTimeout", ctx.Err()))
		}
		if attempts >= policy.MaxAttempts {
			return backoff.Permanent(ragerr.Embedding("embedding.withRetryAndTimeout", err))
		}
		return ragerr.Embedding("embedding.withRetryAndTimeout", err)
	}

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err == nil {
		return nil
	}
	var permErr *ragerr.Error
	if errors.As(err, &permErr) {
		return permErr
	}
	return ragerr.Embedding("embedding.withRetryAndTimeout", err)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"
)

type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64       // fraction of the backoff, 0 disables
	AttemptTimeout    time.Duration // per gateway call
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		AttemptTimeout:    15 * time.Second,
	}
}

// SubmitResult reports the confirmation ref and how many gateway calls the
// submission took, successful or not.
type SubmitResult struct {
	Ref      string
	Attempts int
}

// Submitter wraps a Gateway with a per-call timeout and bounded retries.
// Every attempt reuses the operation id, so retries are idempotent.
type Submitter struct {
	gateway Gateway
	cfg     RetryConfig
	wait    func(ctx context.Context, d time.Duration) error
}

func NewSubmitter(gateway Gateway, cfg RetryConfig) *Submitter {
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Submitter{gateway: gateway, cfg: cfg, wait: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Submitter) Submit(ctx context.Context, op Operation) (SubmitResult, error) {
	var lastErr error
	backoff := s.cfg.InitialBackoff
	res := SubmitResult{}

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(float64(backoff) * s.cfg.Jitter * (rand.Float64()*2 - 1))
			if err := s.wait(ctx, backoff+jitter); err != nil {
				return res, fmt.Errorf("submission of %s interrupted: %w", op.ID, errors.Join(err, lastErr))
			}
			backoff = time.Duration(float64(backoff) * s.cfg.BackoffMultiplier)
			if s.cfg.MaxBackoff > 0 && backoff > s.cfg.MaxBackoff {
				backoff = s.cfg.MaxBackoff
			}
		}

		res.Attempts++
		ref, err := s.submitOnce(ctx, op)
		metrics.RecordLedgerAttempt(string(op.Kind), err == nil)
		if err == nil {
			res.Ref = ref
			return res, nil
		}

		lastErr = err
		logger.Warn("Ledger submission failed",
			"operationID", op.ID,
			"attempt", attempt+1,
			"maxRetries", s.cfg.MaxRetries,
			"error", err)
		if errors.Is(err, ErrRejected) {
			return res, err
		}
	}
	return res, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Submitter) submitOnce(ctx context.Context, op Operation) (string, error) {
	if s.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		defer cancel()
	}
	return s.gateway.Submit(ctx, op)
}

// Confirmation polls the ledger once for ref.
func (s *Submitter) Confirmation(ctx context.Context, ref string) (ConfirmationStatus, error) {
	if s.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		defer cancel()
	}
	return s.gateway.GetConfirmation(ctx, ref)
}

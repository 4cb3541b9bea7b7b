package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/myfamilydoc/go-console-client/apierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// Executor runs a request function with bounded retries. Network failures
// and retryable statuses (429, 5xx) are retried with a linear backoff;
// other client errors are terminal on the first attempt.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
	log         zerolog.Logger
}

// ExecutorOption defines a function type to modify the Executor instance.
type ExecutorOption func(*Executor)

// WithMaxAttempts overrides the attempt budget (default 3).
func WithMaxAttempts(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithBaseDelay overrides the backoff unit (default 1s). The delay before
// attempt i+1 is baseDelay * i.
func WithBaseDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d >= 0 {
			e.baseDelay = d
		}
	}
}

func NewExecutor(log zerolog.Logger, options ...ExecutorOption) *Executor {
	e := &Executor{
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		log:         log,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Do executes fn until it yields a terminal outcome or attempts run out.
// A returned response is the caller's to classify and close; a returned
// error is always an *apierror.Error.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		resp, err := fn(ctx)
		if err != nil {
			var apiErr *apierror.Error
			if errors.As(err, &apiErr) && !apierror.RetryableStatus(apiErr.StatusCode) {
				// Already classified as terminal (auth expired, refresh
				// failed): propagate without burning attempts.
				return nil, apiErr
			}
			lastErr = err
			e.log.Debug().Err(err).Int("attempt", attempt).Msg("request attempt failed")
		} else {
			if !apierror.RetryableStatus(resp.StatusCode) || attempt == e.maxAttempts {
				return resp, nil
			}
			e.log.Debug().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("retryable status, backing off")
			drainBody(resp)
		}

		if attempt == e.maxAttempts {
			break
		}
		if err := e.sleep(ctx, attempt); err != nil {
			return nil, apierror.From(err)
		}
	}

	var apiErr *apierror.Error
	if errors.As(lastErr, &apiErr) {
		return nil, apiErr
	}
	return nil, apierror.Network(lastErr)
}

// sleep waits baseDelay * attempt, or until ctx is done.
func (e *Executor) sleep(ctx context.Context, attempt int) error {
	delay := e.baseDelay * time.Duration(attempt)
	if delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "[Executor.sleep] canceled during backoff")
	case <-timer.C:
		return nil
	}
}

func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}

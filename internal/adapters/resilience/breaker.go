// Package resilience wraps calls to external providers with a circuit breaker and
// records their outcome in Prometheus.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Settings configures a Breaker. Zero values take the defaults used by NewBreaker.
type Settings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MinRequests uint32
	FailureRate float64
	// IsExpected reports errors that are a valid answer from the provider, such as a
	// rejected transfer. They do not count toward tripping the breaker.
	IsExpected func(err error) bool
}

// Breaker is a named circuit breaker.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreaker creates a circuit breaker that opens after FailureRate (default 60%) of at
// least MinRequests (default 10) requests fail inside Interval.
func NewBreaker(s Settings) *Breaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRate == 0 {
		s.FailureRate = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRate
			if shouldTrip {
				slog.Warn("Opening circuit",
					slog.String("breaker", s.Name),
					slog.Uint64("failures", uint64(counts.TotalFailures)),
					slog.Float64("failure_rate", failureRatio*100))
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("Circuit breaker state transition",
				slog.String("breaker", name),
				slog.String("from", stateToString(from)),
				slog.String("to", stateToString(to)))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	}
	if s.IsExpected != nil {
		expected := s.IsExpected
		settings.IsSuccessful = func(err error) bool {
			return err == nil || expected(err)
		}
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](settings), name: s.Name}
}

// Name returns the breaker's name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

// IsRejection reports whether err came from an open breaker rather than the provider.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Execute runs fn through the breaker. Calls rejected by an open breaker never reach fn.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if IsRejection(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			slog.Warn("Request rejected by circuit breaker", slog.String("breaker", b.name), slog.String("error", err.Error()))
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		typed, _ := result.(T)
		return typed, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// ObserveCall records the duration and outcome of one provider call.
func ObserveCall(provider, operation string, start time.Time, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case IsRejection(err):
		outcome = "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "failure"
	}
	metrics.ExternalCallDuration.WithLabelValues(provider, operation, outcome).Observe(time.Since(start).Seconds())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

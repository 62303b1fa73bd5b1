package sns

import (
	"context"
	"log/slog"

	"github.com/go-event-notifier/internal/config"
	"github.com/go-event-notifier/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

type breakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps next in a circuit breaker. While open, Send fails fast
// with gobreaker.ErrOpenState and the pair counts as a delivery failure.
func WithBreaker(name string, next Sender, cfg config.BreakerConfig, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SinkBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn("sink circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	metrics.SinkBreakerState.WithLabelValues(name).Set(0)
	return &breakerSender{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *breakerSender) Send(ctx context.Context, userID, message string) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, userID, message)
	})
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

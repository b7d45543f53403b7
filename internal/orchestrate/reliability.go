package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/xela07ax/instavibe/internal/infra"
	"github.com/xela07ax/instavibe/pkg/a2a"
)

// ReliabilityWrapper оборачивает A2A транспорт в Rate Limiter,
// Circuit Breaker и ретраи с таймаутом на попытку. Сам HostAgent
// дедлайнов не навешивает — это забота транспортного слоя.
type ReliabilityWrapper struct {
	next    TaskSender
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cfg     infra.ReliabilityConfig
}

func NewReliabilityWrapper(next TaskSender, cfg infra.ReliabilityConfig) *ReliabilityWrapper {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "a2a-transport",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	return &ReliabilityWrapper{
		next:    next,
		cb:      cb,
		limiter: limiter,
		cfg:     cfg,
	}
}

func (w *ReliabilityWrapper) SendTask(ctx context.Context, endpoint string, params a2a.TaskSendParams) (*a2a.Task, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var finalTask *a2a.Task

	// 2. Circuit Breaker
	cbResult, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.cfg.Attempts),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Сетевой лаг, 500-ка — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.cfg.AttemptTimeout)
			defer cancel()

			var callErr error
			finalTask, callErr = w.next.SendTask(tCtx, endpoint, params)
			return callErr
		})

		return finalTask, retryErr
	})

	if err != nil {
		return nil, err
	}
	if cbResult == nil {
		return nil, nil
	}
	return cbResult.(*a2a.Task), nil
}

package ai

import (
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// gobreakerWrapper wraps generation calls with a circuit breaker. The breaker
// opens after a sustained failure ratio so the orchestrator can fail requests
// (and roll back credits) immediately instead of waiting out retries against
// a dead upstream.
type gobreakerWrapper struct {
	cb *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
}

func newBreaker(name string, logger *zap.Logger) *gobreakerWrapper {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &gobreakerWrapper{
		cb: gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](settings),
	}
}

func (w *gobreakerWrapper) Execute(fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	return w.cb.Execute(fn)
}

// Package metrics exposes prometheus collectors for validator rounds and
// miner requests.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	namespace = "reprompt"

	subsystemValidator = "validator"
	subsystemMiner     = "miner"

	LabelResult  = "result"
	LabelSynapse = "synapse"
	LabelStatus  = "status"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Collector owns its own registry so several can coexist in one process.
// All methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	rounds          *prometheus.CounterVec
	roundDuration   prometheus.Histogram
	rewards         prometheus.Histogram
	nanReplaced     prometheus.Counter
	weightsSet      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemValidator,
			Name:      "rounds_total",
			Help:      "the number of validation rounds by result",
		}, []string{LabelResult}),

		roundDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemValidator,
			Name:      "round_duration_seconds",
			Help:      "wall time of a validation round",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),

		rewards: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemValidator,
			Name:      "reward",
			Help:      "distribution of per-miner rewards",
			Buckets:   []float64{0, 1e-4, 0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1},
		}),

		nanReplaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemValidator,
			Name:      "non_finite_rewards_total",
			Help:      "the number of NaN or infinite rewards replaced with zero",
		}),

		weightsSet: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemValidator,
			Name:      "set_weights_total",
			Help:      "the number of weight publications by result",
		}, []string{LabelResult}),

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemMiner,
			Name:      "requests_total",
			Help:      "the number of synapse requests by status",
		}, []string{LabelSynapse, LabelStatus}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemMiner,
			Name:      "request_duration_seconds",
			Help:      "time spent handling a synapse request",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelSynapse}),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RoundFinished(result string, d time.Duration) {
	if c == nil {
		return
	}
	c.rounds.With(prometheus.Labels{LabelResult: result}).Inc()
	if result != ResultSkipped {
		c.roundDuration.Observe(d.Seconds())
	}
}

func (c *Collector) RewardObserved(reward float64) {
	if c == nil {
		return
	}
	c.rewards.Observe(reward)
}

func (c *Collector) NonFiniteReplaced(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.nanReplaced.Add(float64(n))
}

func (c *Collector) WeightsPublished(ok bool) {
	if c == nil {
		return
	}
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	c.weightsSet.With(prometheus.Labels{LabelResult: result}).Inc()
}

func (c *Collector) RequestHandled(synapse string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.With(prometheus.Labels{LabelSynapse: synapse, LabelStatus: http.StatusText(status)}).Inc()
	c.requestDuration.With(prometheus.Labels{LabelSynapse: synapse}).Observe(d.Seconds())
}

// Serve exposes the collector on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("Serving prometheus metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/quickly-poll/models"
)

// Rejection reasons, used as the "reason" label
const (
	ReasonValidation  = "validation"
	ReasonNotFound    = "not_found"
	ReasonExpired     = "expired"
	ReasonRateLimited = "rate_limited"
	ReasonDuplicate   = "duplicate"
	ReasonStorage     = "storage"
)

type Metrics struct {
	VotesAccepted   prometheus.Counter
	VotesRejected   *prometheus.CounterVec
	VoteDuration    prometheus.Histogram
	RateLimitChecks *prometheus.CounterVec
	PollsCreated    prometheus.Counter
	PollsDeleted    prometheus.Counter
}

// New registers all collectors on reg. Pass a fresh prometheus.NewRegistry()
// in tests so registrations never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VotesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quickly_poll",
			Name:      "votes_accepted_total",
			Help:      "Total number of votes persisted",
		}),
		VotesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickly_poll",
			Name:      "votes_rejected_total",
			Help:      "Total number of vote attempts rejected, by reason",
		}, []string{"reason"}),
		VoteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quickly_poll",
			Name:      "vote_duration_seconds",
			Help:      "Histogram of vote handling times",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}),
		RateLimitChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickly_poll",
			Name:      "rate_limit_checks_total",
			Help:      "Rate limiter decisions, by outcome",
		}, []string{"outcome"}),
		PollsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quickly_poll",
			Name:      "polls_created_total",
			Help:      "Total number of polls created",
		}),
		PollsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quickly_poll",
			Name:      "polls_deleted_total",
			Help:      "Total number of polls deleted",
		}),
	}
}

// ObserveRateLimit implements ratelimit.Observer
func (m *Metrics) ObserveRateLimit(allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.RateLimitChecks.WithLabelValues(outcome).Inc()
}

// ObserveVote records the outcome of one vote attempt
func (m *Metrics) ObserveVote(err error, elapsed time.Duration) {
	m.VoteDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.VotesAccepted.Inc()
		return
	}
	m.VotesRejected.WithLabelValues(Reason(err)).Inc()
}

// Reason maps an error to its rejection label
func Reason(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return ReasonValidation
	case errors.Is(err, models.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, models.ErrExpired):
		return ReasonExpired
	case errors.Is(err, models.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, models.ErrDuplicateVote):
		return ReasonDuplicate
	default:
		return ReasonStorage
	}
}

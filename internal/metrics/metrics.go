// Package metrics exposes the Prometheus instrumentation for the portal:
// workflow outcomes, approval outcomes, status updates and HTTP latency.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	verificationActions *prometheus.CounterVec
	bankingApprovals    *prometheus.CounterVec
	statusUpdates       *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewCollector creates the collector and registers it with reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		verificationActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_actions_total",
				Help:      "Verification submissions by family, action type and outcome",
			},
			[]string{"family", "action_type", "outcome"},
		),
		bankingApprovals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "banking_approvals_total",
				Help:      "Banking approval attempts by escrow role and outcome",
			},
			[]string{"escrow_role", "outcome"},
		),
		statusUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_status_updates_total",
				Help:      "Explicit transaction status updates by target status",
			},
			[]string{"status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route and status code",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
	}
	reg.MustRegister(c.verificationActions, c.bankingApprovals, c.statusUpdates, c.httpDuration)
	return c
}

func (c *Collector) ObserveVerification(family, actionType, outcome string) {
	c.verificationActions.WithLabelValues(family, actionType, outcome).Inc()
}

func (c *Collector) ObserveApproval(escrowRole, outcome string) {
	c.bankingApprovals.WithLabelValues(escrowRole, outcome).Inc()
}

func (c *Collector) ObserveStatusUpdate(status string) {
	c.statusUpdates.WithLabelValues(status).Inc()
}

// Middleware records per-request latency against the matched route template,
// not the raw path, to keep cardinality bounded.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpDuration.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

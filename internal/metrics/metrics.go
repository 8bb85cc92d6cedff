package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a Prometheus counter for the number of retry attempts performed by gateways
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by gateways",
	})
}

// NewAssignmentAcceptsTotal returns a Prometheus counter for won accept races
func NewAssignmentAcceptsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_accepts_total",
		Help: "Total number of assignments accepted by a courier",
	})
}

// NewAssignmentRaceLostTotal returns a Prometheus counter for lost accept races
func NewAssignmentRaceLostTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_race_lost_total",
		Help: "Total number of accept attempts that lost the race or arrived late",
	})
}

// NewSlowConsumerDropsTotal returns a Prometheus counter for connections dropped over a full send queue
func NewSlowConsumerDropsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slow_consumer_drops_total",
		Help: "Total number of connections dropped because their send queue was full",
	})
}

// NewOTPFailuresTotal returns a Prometheus counter for failed code verifications
func NewOTPFailuresTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "otp_failures_total",
		Help: "Total number of failed one-time-code verifications",
	})
}

package shopapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shopapi_requests_total",
		Help: "Outbound shop-service requests by operation and outcome",
	},
	[]string{"op", "outcome"},
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeRejected  = "rejected"
)

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unimarket_orders_created_total",
		Help: "Orders that entered escrow.",
	})
	EscrowReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unimarket_escrow_released_total",
		Help: "Orders whose escrow was released to the seller.",
	})
	OrdersRefunded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unimarket_orders_refunded_total",
		Help: "Orders refunded to the buyer.",
	})
	AccountsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unimarket_accounts_swept_total",
		Help: "Accounts deleted by the maintenance sweep.",
	})
	SecurityViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unimarket_security_violations_total",
		Help: "Requests rejected by the input sanitizer or tamper checks.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unimarket_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMetrics records per-route latency and status for every request.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

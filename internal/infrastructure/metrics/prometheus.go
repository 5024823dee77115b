package metrics

import (
	"math/big"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Prometheus metrics for the price chain service
var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_chain_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_chain_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_chain_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Oracle Metrics
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_updates_total",
			Help: "Price update attempts by variant and result (ok or error kind)",
		},
		[]string{"variant", "result"},
	)

	UpdateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_chain_update_duration_seconds",
			Help:    "End-to-end duration of price update calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"variant"},
	)

	PairsBoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_pairs_bound_total",
			Help: "Number of pairs bound to a source",
		},
		[]string{"variant"},
	)

	CurrentPrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_chain_current_price",
			Help: "Last accepted price per pair (approximate float rendering)",
		},
		[]string{"variant", "pair"},
	)

	LastUpdateTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_chain_last_update_timestamp_seconds",
			Help: "Ledger timestamp of the last accepted update per pair",
		},
		[]string{"variant", "pair"},
	)

	ChainLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_chain_chain_length",
			Help: "Number of accepted updates folded into each pair's hash chain",
		},
		[]string{"variant", "pair"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_verifications_total",
			Help: "Audit chain verifications by result",
		},
		[]string{"variant", "result"},
	)

	// Source Metrics
	SourceCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_source_calls_total",
			Help: "Calls to external price sources",
		},
		[]string{"kind", "method", "result"},
	)

	SourceCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_chain_source_call_duration_seconds",
			Help:    "External price source call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"kind", "method"},
	)

	RPCFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_rpc_fallbacks_total",
			Help: "Contract calls served by the secondary RPC endpoint, by reason and outcome",
		},
		[]string{"reason", "result"},
	)

	ConnectRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_connect_retries_total",
			Help: "Retries while establishing backend connections",
		},
		[]string{"backend", "attempt"},
	)

	// Store Metrics
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_store_operations_total",
			Help: "Record store operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	// Rate Limiting Metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_rate_limit_requests_total",
			Help: "Requests checked by the HTTP rate limiter",
		},
		[]string{"result"},
	)

	RateLimitClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_chain_rate_limit_clients",
			Help: "Number of clients currently tracked by the rate limiter",
		},
	)

	// Event stream Metrics
	EventStreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_chain_event_stream_clients",
			Help: "Connected audit event stream clients",
		},
	)

	EventStreamDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "price_chain_event_stream_drops_total",
			Help: "Audit events dropped because a subscriber was too slow",
		},
	)

	// Keeper Metrics
	KeeperRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_chain_keeper_runs_total",
			Help: "Scheduled refresh outcomes per target",
		},
		[]string{"variant", "outcome"},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_chain_application_info",
			Help: "Application build information",
		},
		[]string{"version", "environment"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)

	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordUpdate records the outcome of an update call; result is "ok" or an error kind
func RecordUpdate(variant, result string, duration float64) {
	UpdatesTotal.WithLabelValues(variant, result).Inc()
	UpdateDuration.WithLabelValues(variant).Observe(duration)
}

func RecordPairBound(variant string) {
	PairsBoundTotal.WithLabelValues(variant).Inc()
}

// UpdatePairState refreshes the per-pair gauges after an accepted update
func UpdatePairState(variant, pair string, price *big.Int, timestamp, chainLength uint64) {
	CurrentPrice.WithLabelValues(variant, pair).Set(PriceToFloat(price))
	LastUpdateTimestamp.WithLabelValues(variant, pair).Set(float64(timestamp))
	ChainLength.WithLabelValues(variant, pair).Set(float64(chainLength))
}

// PriceToFloat renders an arbitrary precision integer price as float64 for gauges
func PriceToFloat(price *big.Int) float64 {
	if price == nil {
		return 0
	}
	return decimal.NewFromBigInt(price, 0).InexactFloat64()
}

func RecordVerification(variant string, valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	VerificationsTotal.WithLabelValues(variant, result).Inc()
}

// RecordSourceCall records one call to a price source
func RecordSourceCall(kind, method string, err error, duration float64) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SourceCallsTotal.WithLabelValues(kind, method, result).Inc()
	SourceCallDuration.WithLabelValues(kind, method).Observe(duration)
}

// RecordRPCFallback records a call that fell back to the secondary endpoint
func RecordRPCFallback(reason string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RPCFallbacksTotal.WithLabelValues(reason, result).Inc()
}

func RecordConnectRetry(backend string, attempt uint) {
	ConnectRetries.WithLabelValues(backend, strconv.FormatUint(uint64(attempt), 10)).Inc()
}

// RecordStoreOperation records a store operation; result is success, not_found, conflict or error
func RecordStoreOperation(backend, operation, result string) {
	StoreOperationsTotal.WithLabelValues(backend, operation, result).Inc()
}

func RecordRateLimitResult(allowed bool) {
	if allowed {
		RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
	} else {
		RateLimitRequestsTotal.WithLabelValues("rejected").Inc()
	}
}

func SetRateLimitClients(n int) {
	RateLimitClients.Set(float64(n))
}

func SetEventStreamClients(n int) {
	EventStreamClients.Set(float64(n))
}

func RecordEventStreamDrop() {
	EventStreamDrops.Inc()
}

// RecordKeeperRun records a scheduled refresh outcome: updated, skipped or failed
func RecordKeeperRun(variant, outcome string) {
	KeeperRunsTotal.WithLabelValues(variant, outcome).Inc()
}

func SetApplicationInfo(version, environment string) {
	ApplicationInfo.WithLabelValues(version, environment).Set(1)
}

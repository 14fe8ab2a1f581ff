package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/greenridge/farmops/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Tenant metrics
	TenantOperationsCounter     *prometheus.CounterVec
	TenantContextMissingCounter prometheus.Counter

	// Store operation metrics
	StoreOperationDuration *prometheus.HistogramVec

	// Ledger metrics
	LedgerOperationsCounter *prometheus.CounterVec
	InventoryItemsGauge     *prometheus.GaugeVec

	// Deployment metrics
	DeploymentOperationsCounter *prometheus.CounterVec

	// Export metrics
	ExportOperationsCounter *prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	TenantOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_operations_total",
			Help: "Total number of tenant lifecycle operations",
		},
		[]string{"operation"},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	LedgerOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_ledger_operations_total",
			Help: "Total number of inventory ledger operations",
		},
		[]string{"operation"},
	)

	InventoryItemsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_inventory_items",
			Help: "Number of distinct inventory items per tenant",
		},
		[]string{"tenant_id"},
	)

	DeploymentOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_deployment_operations_total",
			Help: "Total number of deployment operations",
		},
		[]string{"kind", "operation"},
	)

	ExportOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_export_operations_total",
			Help: "Total number of export and import operations",
		},
		[]string{"format"},
	)
}

// TrackStoreOperation returns a function that records the duration of a store operation
func TrackStoreOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		StoreOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthError increments the counter for a failed authentication path
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordTenantOperation increments the counter for tenant lifecycle operations
func RecordTenantOperation(operation string) {
	TenantOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordLedgerOperation increments the counter for ledger operations
func RecordLedgerOperation(operation string) {
	LedgerOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordDeploymentOperation increments the counter for deployment operations
func RecordDeploymentOperation(kind, operation string) {
	DeploymentOperationsCounter.WithLabelValues(kind, operation).Inc()
}

// RecordExportOperation increments the counter for export/import operations
func RecordExportOperation(format string) {
	ExportOperationsCounter.WithLabelValues(format).Inc()
}

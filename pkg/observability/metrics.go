package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TablesTotal   *prometheus.CounterVec
	RowsCopied    *prometheus.CounterVec
	BytesCopied   *prometheus.CounterVec
	TableDuration prometheus.Histogram
	ActiveWorkers prometheus.Gauge
	ErrorsTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		TablesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mygrate_tables_total",
			Help: "Number of table migrations by result",
		}, []string{"result"}),
		RowsCopied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mygrate_rows_copied_total",
			Help: "Rows pushed into the destination COPY stream",
		}, []string{"table"}),
		BytesCopied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mygrate_bytes_copied_total",
			Help: "Encoded stream bytes pushed to the destination",
		}, []string{"table"}),
		TableDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mygrate_table_duration_seconds",
			Help:    "Wall time per table migration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		ActiveWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mygrate_active_workers",
			Help: "Number of workers currently migrating a table",
		}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mygrate_errors_total",
			Help: "Total number of errors by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncTables(result string) {
	m.TablesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AddRowsCopied(table string, rows float64) {
	m.RowsCopied.WithLabelValues(table).Add(rows)
}

func (m *Metrics) AddBytesCopied(table string, bytes float64) {
	m.BytesCopied.WithLabelValues(table).Add(bytes)
}

func (m *Metrics) ObserveTableDuration(seconds float64) {
	m.TableDuration.Observe(seconds)
}

func (m *Metrics) IncActiveWorkers() {
	m.ActiveWorkers.Inc()
}

func (m *Metrics) DecActiveWorkers() {
	m.ActiveWorkers.Dec()
}

func (m *Metrics) IncErrors(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

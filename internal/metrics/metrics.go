// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやミドルウェアから利用する。
type MetricsCollector interface {
	RecordCheckInToggle(action string)
	RecordImport(outcome string)
	RecordBackup(outcome string)
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	checkInToggles  *prometheus.CounterVec
	imports         *prometheus.CounterVec
	backups         *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkInToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timelime_checkin_toggles_total",
			Help: "チェックイントグルの合計数（added/removed別）",
		}, []string{"action"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timelime_imports_total",
			Help: "インポート実行の合計数（accepted/rejected別）",
		}, []string{"outcome"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timelime_backups_total",
			Help: "自動バックアップ実行の合計数（success/failure別）",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timelime_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timelime_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.checkInToggles,
		c.imports,
		c.backups,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordCheckInToggle はチェックイントグルを記録する。actionはadded/removed。
func (c *Collector) RecordCheckInToggle(action string) {
	c.checkInToggles.WithLabelValues(action).Inc()
}

// RecordImport はインポート実行を記録する。outcomeはaccepted/rejected。
func (c *Collector) RecordImport(outcome string) {
	c.imports.WithLabelValues(outcome).Inc()
}

// RecordBackup は自動バックアップ実行を記録する。outcomeはsuccess/failure。
func (c *Collector) RecordBackup(outcome string) {
	c.backups.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器。方法对 nil 接收者安全，未启用指标时可直接传 nil
type Collector struct {
	registry *prometheus.Registry

	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库指标
	dbQueryDuration *prometheus.HistogramVec
	dbErrorsTotal   *prometheus.CounterVec

	// 业务指标
	couponTransitions *prometheus.CounterVec
	redemptionsTotal  *prometheus.CounterVec
	takeAwayTotal     *prometheus.CounterVec
	batchSize         prometheus.Histogram
}

// NewCollector 创建使用独立注册表的指标收集器
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		dbErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_errors_total",
				Help: "Total number of database errors",
			},
			[]string{"operation"},
		),

		couponTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coupon_status_transitions_total",
				Help: "Coupon status changes persisted by any coupon write",
			},
			[]string{"from", "to"},
		),

		redemptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coupon_redemptions_total",
				Help: "Redemption attempts by mode and outcome",
			},
			[]string{"mode", "result"},
		),

		takeAwayTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coupon_take_away_actions_total",
				Help: "Take-away workflow actions by outcome",
			},
			[]string{"action", "result"},
		),

		batchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "coupon_redeem_batch_size",
				Help:    "Number of coupons per batch redemption",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
	}
}

// Registry 返回 /metrics 使用的注册表
func (m *Collector) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Collector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery 记录数据库操作耗时
func (m *Collector) RecordDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.dbErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// RecordTransition 记录一次落库的主状态变化，状态未变（如外带审批、堂食外带切换）不计数
func (m *Collector) RecordTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.couponTransitions.WithLabelValues(from, to).Inc()
}

// RecordRedemption 记录核销结果，result 为 ok 或拒绝原因
func (m *Collector) RecordRedemption(mode, result string) {
	if m == nil {
		return
	}
	m.redemptionsTotal.WithLabelValues(mode, result).Inc()
}

// RecordTakeAway 记录外带审批动作
func (m *Collector) RecordTakeAway(action, result string) {
	if m == nil {
		return
	}
	m.takeAwayTotal.WithLabelValues(action, result).Inc()
}

// ObserveBatch 记录批量核销的规模
func (m *Collector) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(size))
}

// getStatusCategory 获取状态分类
func getStatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Package metrics 暴露 HTTP 与约球业务的 Prometheus 指标。
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "squash_league"

// Metrics 指标集合；nil *Metrics 的所有记录方法都是空操作
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	matchRequests   *prometheus.CounterVec
	partnersFound   prometheus.Histogram
	mergeConflicts  prometheus.Counter
	nameLookupFails prometheus.Counter
}

// New 在独立 Registry 上注册全部指标（含 Go 运行时与进程指标）
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	var err error
	if _, err = register(reg, collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if _, err = register(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	if m.httpRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP 请求总数",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}
	if m.matchRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_requests_total",
		Help:      "约球申请事件数，按结果分类",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.partnersFound, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "partners_found",
		Help:      "单次按日期查询找到的对手数",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})); err != nil {
		return nil, err
	}
	if m.mergeConflicts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "availability_merge_conflicts_total",
		Help:      "可约时间合并时的乐观锁冲突次数",
	})); err != nil {
		return nil, err
	}
	if m.nameLookupFails, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_name_lookup_failures_total",
		Help:      "展示名查询失败次数（已回退）",
	})); err != nil {
		return nil, err
	}

	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("注册指标失败: %w", err)
	}
	return c, nil
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 底层 Registry（测试使用）
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// MatchRequest 记录约球申请事件：requested / duplicate / accepted / rejected / cancelled
func (m *Metrics) MatchRequest(outcome string) {
	if m == nil {
		return
	}
	m.matchRequests.WithLabelValues(outcome).Inc()
}

// PartnersFound 记录一次查询的对手数
func (m *Metrics) PartnersFound(n int) {
	if m == nil {
		return
	}
	m.partnersFound.Observe(float64(n))
}

// MergeConflict 记录一次乐观锁冲突
func (m *Metrics) MergeConflict() {
	if m == nil {
		return
	}
	m.mergeConflicts.Inc()
}

// NameLookupFailed 记录一次展示名查询失败
func (m *Metrics) NameLookupFailed() {
	if m == nil {
		return
	}
	m.nameLookupFails.Inc()
}

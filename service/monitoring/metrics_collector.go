/*
 * @module service/monitoring/metrics_collector
 * @description Prometheus 指标收集器：阶段耗时、行数变化、翻译调用结果、运行结果
 * @architecture 监控层 - 实现清洗管道的 Observer 接口
 * @stateFlow 阶段完成/翻译调用/运行结束 -> 指标更新 -> /metrics 暴露
 * @rules 标签只使用有限取值（阶段名、结果、状态），不使用列名或运行ID
 * @dependencies github.com/prometheus/client_golang
 * @refs service/data_cleaning/pipeline.go, api/routes.go
 */

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "datascrub"

// MetricsCollector 清洗管道指标
type MetricsCollector struct {
	stageDuration    *prometheus.HistogramVec
	stageRows        *prometheus.CounterVec
	translationCalls *prometheus.CounterVec
	translationTime  prometheus.Histogram
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// NewMetricsCollector 创建并注册指标，reg 为 nil 时使用默认注册表
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &MetricsCollector{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "清洗阶段耗时",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		stageRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_rows_total",
			Help:      "清洗阶段处理的行数",
		}, []string{"stage", "direction"}),
		translationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_calls_total",
			Help:      "翻译调用次数",
		}, []string{"outcome"}),
		translationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_call_duration_seconds",
			Help:      "单次翻译调用耗时",
			Buckets:   prometheus.DefBuckets,
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "管道运行次数",
		}, []string{"status", "trigger"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "管道运行总耗时（含加载）",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	reg.MustRegister(
		c.stageDuration,
		c.stageRows,
		c.translationCalls,
		c.translationTime,
		c.runs,
		c.runDuration,
	)
	return c
}

// StageCompleted 记录阶段耗时与行数
func (c *MetricsCollector) StageCompleted(stage string, rowsIn, rowsOut int, duration time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	c.stageRows.WithLabelValues(stage, "in").Add(float64(rowsIn))
	c.stageRows.WithLabelValues(stage, "out").Add(float64(rowsOut))
}

// TranslationCall 记录翻译调用
func (c *MetricsCollector) TranslationCall(outcome string, duration time.Duration) {
	c.translationCalls.WithLabelValues(outcome).Inc()
	c.translationTime.Observe(duration.Seconds())
}

// RunCompleted 记录一次运行
func (c *MetricsCollector) RunCompleted(status, trigger string, duration time.Duration) {
	c.runs.WithLabelValues(status, trigger).Inc()
	c.runDuration.Observe(duration.Seconds())
}

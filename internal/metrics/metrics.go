package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCalls счетчик вызовов инструментов
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Общее количество вызовов инструментов",
		},
		[]string{"tool_name", "status"},
	)

	// CalculationErrors счетчик ошибок расчетов
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculation_errors_total",
			Help: "Количество ошибок расчетов",
		},
		[]string{"tool_name", "error_type"},
	)

	// APICalls счетчик вызовов API
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_calls_total",
			Help: "Вызовы API инструментов",
		},
		[]string{"service", "endpoint", "status"},
	)

	// Allocations счетчик распределений оплаченных платежей
	Allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocations_total",
			Help: "Распределенные платежи по способу амортизации и базе расчета",
		},
		[]string{"method", "basis"},
	)

	// ReconstructionIterations число итераций поиска исходной суммы
	ReconstructionIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconstruction_iterations",
			Help:    "Итерации бинарного поиска исходной суммы кредита",
			Buckets: prometheus.LinearBuckets(0, 5, 9),
		},
	)
)

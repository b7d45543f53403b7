package orchestrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: длительность round-trip до удаленного агента
	TaskDuration *prometheus.HistogramVec

	// Traffic: делегированные задачи по агентам и конечным состояниям
	TasksTotal *prometheus.CounterVec

	// Errors: классификация отказов (unknown_agent, canceled, failed, invalid_task)
	ErrorTotal *prometheus.CounterVec

	// Текущее количество зарегистрированных агентов
	RegisteredAgents prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - без регистратора метрики копятся в локальный реестр
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		TaskDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orchestrate_task_duration_seconds",
			Help:    "Histogram of remote task round-trip latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"agent"}),

		TasksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrate_tasks_total",
			Help: "Total number of delegated tasks by final state.",
		}, []string{"agent", "state"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrate_errors_total",
			Help: "Total number of delegation errors by type.",
		}, []string{"type"}),

		RegisteredAgents: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "orchestrate_registered_agents",
			Help: "Current number of registered remote agents.",
		}),
	}
}

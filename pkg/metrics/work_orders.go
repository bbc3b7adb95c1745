package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkOrderMetrics tracks lifecycle transitions, rejected operations, ledger
// movements and archive guard outcomes.
type WorkOrderMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	movements   *prometheus.CounterVec
	guardChecks *prometheus.CounterVec
}

func NewWorkOrderMetrics(reg prometheus.Registerer) *WorkOrderMetrics {
	if reg == nil {
		return &WorkOrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "work_order_transitions_total",
		Help: "Work orders moved into a state.",
	}, []string{"to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "work_order_rejections_total",
		Help: "Work order operations rejected with a domain error.",
	}, []string{"operation", "code"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_movements_total",
		Help: "Stock ledger reserve/release movements.",
	}, []string{"kind"})
	guardChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_guard_checks_total",
		Help: "Archive guard evaluations by entity kind and outcome.",
	}, []string{"kind", "result"})
	reg.MustRegister(transitions, rejections, movements, guardChecks)
	return &WorkOrderMetrics{
		transitions: transitions,
		rejections:  rejections,
		movements:   movements,
		guardChecks: guardChecks,
	}
}

func (m *WorkOrderMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func (m *WorkOrderMetrics) IncRejection(operation, code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func (m *WorkOrderMetrics) IncMovement(kind string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveGuard records whether an entity was found referenced ("blocked") or not ("clear").
func (m *WorkOrderMetrics) ObserveGuard(kind string, referenced bool) {
	if m == nil || m.guardChecks == nil {
		return
	}
	result := "clear"
	if referenced {
		result = "blocked"
	}
	m.guardChecks.WithLabelValues(normalizeLabel(kind), result).Inc()
}

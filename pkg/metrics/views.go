package metrics

import "github.com/prometheus/client_golang/prometheus"

// ViewMetrics counts list-view fetch results that were applied or discarded as stale.
type ViewMetrics struct {
	applied   *prometheus.CounterVec
	discarded *prometheus.CounterVec
}

func NewViewMetrics(reg prometheus.Registerer) *ViewMetrics {
	if reg == nil {
		return &ViewMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "view_fetch_applied_total",
		Help: "List fetches whose result was committed to view state.",
	}, []string{"view"})
	discarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "view_fetch_discarded_total",
		Help: "List fetches dropped because their filter/page snapshot was superseded.",
	}, []string{"view"})
	reg.MustRegister(applied, discarded)
	return &ViewMetrics{applied: applied, discarded: discarded}
}

func (v *ViewMetrics) IncApplied(view string) {
	if v == nil || v.applied == nil {
		return
	}
	v.applied.WithLabelValues(normalizeLabel(view)).Inc()
}

func (v *ViewMetrics) IncDiscarded(view string) {
	if v == nil || v.discarded == nil {
		return
	}
	v.discarded.WithLabelValues(normalizeLabel(view)).Inc()
}

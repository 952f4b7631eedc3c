package metrics

import (
	"github.com/dalemusser/caligben/internal/contact"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	contactSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submission attempts by outcome (accepted, rejected).",
		},
		[]string{"outcome"},
	)
	contactFieldErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_field_errors_total",
			Help: "Contact form validation errors by field and kind.",
		},
		[]string{"field", "kind"},
	)
	contactReversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_reversions_total",
			Help: "Confirmations returned to the editable form, by cause.",
		},
		[]string{"cause"},
	)
)

// ContactObserver feeds contact controller events into the contact_*
// counters. The zero value is ready to use.
type ContactObserver struct{}

var _ contact.Observer = ContactObserver{}

func (ContactObserver) Attempted(res contact.Result) {
	if res.Valid {
		contactSubmissions.WithLabelValues("accepted").Inc()
		return
	}
	contactSubmissions.WithLabelValues("rejected").Inc()
	for field, fe := range res.Errors {
		contactFieldErrors.WithLabelValues(string(field), string(fe.Kind)).Inc()
	}
}

func (ContactObserver) Reverted(cause contact.RevertCause) {
	contactReversions.WithLabelValues(string(cause)).Inc()
}

// Package notify delivers best-effort notifications to thread authors.
// Failures are logged and counted, never surfaced to the triggering caller.
package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arbor-dev/arbor/internal/domain"
	"github.com/arbor-dev/arbor/internal/logger"
)

const KindReply = "reply"

type Notification struct {
	Sender    domain.UserId
	Recipient domain.UserId
	Message   string
	Kind      string
	Payload   any
}

type Dispatcher interface {
	Notify(n Notification) error
}

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "arbor_notifications_total",
		Help: "Notifications dispatched, by kind and outcome",
	},
	[]string{"kind", "outcome"},
)

// LogDispatcher writes notifications to the service log. It stands in for an
// outbound delivery channel (email, push) wired in deployment.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Notify(n Notification) error {
	logger.Log.Info("notification dispatched",
		"kind", n.Kind,
		"sender", n.Sender,
		"recipient", n.Recipient,
		"message", n.Message,
	)
	notificationsTotal.WithLabelValues(n.Kind, "ok").Inc()
	return nil
}

// Dispatch delivers n asynchronously and absorbs the error. The caller's
// success response never waits on notification delivery.
func Dispatch(d Dispatcher, n Notification) {
	go func() {
		if err := d.Notify(n); err != nil {
			notificationsTotal.WithLabelValues(n.Kind, "error").Inc()
			logger.Log.Error("notification delivery failed",
				"kind", n.Kind,
				"recipient", n.Recipient,
				"error", err,
			)
		}
	}()
}

package interview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "ws_messages_total",
		Help:      "Inbound client messages by type",
	}, []string{"type"})

	questionTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "question_timeouts_total",
		Help:      "Questions force-answered because their countdown expired",
	})

	generationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "generation_failures_total",
		Help:      "Question generation calls that returned an error",
	})

	evaluationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "evaluation_failures_total",
		Help:      "Transcript evaluation calls that returned an error",
	})

	interviewsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "completed_total",
		Help:      "Interviews that reached the completed state",
	})
)

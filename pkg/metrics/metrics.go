// Package metrics exposes prometheus instrumentation for the orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesHandled counts queue messages handled, by message type and result.
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "messages_handled_total",
		Help:      "Queue messages handled by the orchestrator.",
	}, []string{"message_type", "result"})

	// MessagesDiscarded counts undecodable queue messages acknowledged
	// and dropped.
	MessagesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "messages_discarded_total",
		Help:      "Queue messages dropped because their payload could not be decoded.",
	})

	// SyntheticStagesBuilt counts stages synthesized by the rollout engine.
	SyntheticStagesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "synthetic_stages_built_total",
		Help:      "Synthetic stages produced by the stage graph builder.",
	}, []string{"strategy", "stage_type"})

	// ExecutionsCompleted counts executions reaching a terminal status.
	ExecutionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "executions_completed_total",
		Help:      "Executions that reached a terminal status.",
	}, []string{"status"})
)

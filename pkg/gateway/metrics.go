package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTurns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emcee",
		Subsystem: "gateway",
		Name:      "turns_total",
		Help:      "Completed conversational exchanges.",
	})
	metricGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emcee",
		Subsystem: "gateway",
		Name:      "generation_failures_total",
		Help:      "Turns abandoned because reply generation failed.",
	})
	metricResponseTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emcee",
		Subsystem: "gateway",
		Name:      "response_timeouts_total",
		Help:      "Waits abandoned because no reply arrived in time.",
	})
	metricDroppedAudio = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emcee",
		Subsystem: "gateway",
		Name:      "dropped_audio_chunks_total",
		Help:      "Audio chunks discarded while the robot was busy.",
	})
	metricStaleReplies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emcee",
		Subsystem: "gateway",
		Name:      "stale_replies_total",
		Help:      "Replies discarded because their turn was abandoned first.",
	})
	metricTranscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emcee",
		Subsystem: "gateway",
		Name:      "transcription_failures_total",
		Help:      "Utterances that produced no usable transcript.",
	})
	metricGestures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emcee",
			Subsystem: "gateway",
			Name:      "gestures_dispatched_total",
			Help:      "Gestures sent to the actuator, by gesture name.",
		},
		[]string{"gesture"},
	)
)

// Package metrics defines the Prometheus collectors for duel gameplay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the duel counters. A nil *Collector is valid and records nothing.
type Collector struct {
	DuelsCreated   *prometheus.CounterVec
	DuelsCompleted *prometheus.CounterVec
	Answers        *prometheus.CounterVec
	HintEvents     *prometheus.CounterVec
	Sabotages      *prometheus.CounterVec
	QueueWaiting   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		DuelsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "word_duel",
			Name:      "duels_created_total",
			Help:      "Duels created, by mode and preset.",
		}, []string{"mode", "preset"}),
		DuelsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "word_duel",
			Name:      "duels_completed_total",
			Help:      "Duels finished, by outcome (win or draw).",
		}, []string{"outcome"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "word_duel",
			Name:      "answers_total",
			Help:      "Submitted answers, by level and result.",
		}, []string{"level", "result"}),
		HintEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "word_duel",
			Name:      "hint_events_total",
			Help:      "Hint exchange steps: request, accept, eliminate.",
		}, []string{"event"}),
		Sabotages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "word_duel",
			Name:      "sabotages_total",
			Help:      "Sabotage effects triggered, by kind.",
		}, []string{"kind"}),
		QueueWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "word_duel",
			Name:      "queue_waiting",
			Help:      "Players waiting for a random opponent.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.DuelsCreated, c.DuelsCompleted, c.Answers, c.HintEvents, c.Sabotages, c.QueueWaiting)
	}
	return c
}

func (c *Collector) DuelCreated(mode, preset string) {
	if c == nil {
		return
	}
	c.DuelsCreated.WithLabelValues(mode, preset).Inc()
}

func (c *Collector) DuelCompleted(draw bool) {
	if c == nil {
		return
	}
	outcome := "win"
	if draw {
		outcome = "draw"
	}
	c.DuelsCompleted.WithLabelValues(outcome).Inc()
}

func (c *Collector) Answer(level string, correct, late bool) {
	if c == nil {
		return
	}
	result := "wrong"
	switch {
	case late:
		result = "late"
	case correct:
		result = "correct"
	}
	c.Answers.WithLabelValues(level, result).Inc()
}

func (c *Collector) Hint(event string) {
	if c == nil {
		return
	}
	c.HintEvents.WithLabelValues(event).Inc()
}

func (c *Collector) Sabotage(kind string) {
	if c == nil {
		return
	}
	c.Sabotages.WithLabelValues(kind).Inc()
}

func (c *Collector) SetQueueWaiting(n int) {
	if c == nil {
		return
	}
	c.QueueWaiting.Set(float64(n))
}

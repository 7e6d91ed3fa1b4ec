package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueWaiting = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codearena",
		Name:      "queue_waiting",
		Help:      "Игроки в очереди матчмейкинга.",
	})

	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codearena",
		Name:      "connections_open",
		Help:      "Открытые websocket соединения.",
	})

	MatchesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codearena",
		Name:      "matches_live",
		Help:      "Нетерминальные матчи.",
	})

	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "matches_created_total",
		Help:      "Созданные матчи.",
	})

	MatchesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "matches_resolved_total",
		Help:      "Завершённые матчи по причине.",
	}, []string{"reason"})

	ChallengeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "challenge_fallbacks_total",
		Help:      "Задача назначена по таймауту синхронизации.",
	})

	ProgressRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "progress_relayed_total",
		Help:      "Пересланные сопернику отчёты о прогрессе.",
	})

	Heartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "heartbeats_total",
		Help:      "Полученные heartbeat'ы.",
	})

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "reconnects_total",
		Help:      "Переподключения к живому матчу.",
	})

	HistoryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "history_write_failures_total",
		Help:      "Неудачные записи истории матчей.",
	})

	DroppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Name:      "dropped_messages_total",
		Help:      "Исходящие сообщения, не влезшие в буфер клиента.",
	})
)

package ws

import (
	"fmt"
	"time"

	"codearena/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// Monitor периодически проверяет heartbeat'ы живых матчей
// и вычищает завершённые комнаты
type Monitor struct {
	hub     *Hub
	sweep   time.Duration
	cleanup time.Duration
	sched   gocron.Scheduler
}

func NewMonitor(hub *Hub) *Monitor {
	sweep := hub.cfg.SweepInterval
	if sweep <= 0 {
		sweep = time.Second
	}
	cleanup := hub.cfg.FinishedRetention / 2
	if cleanup < sweep {
		cleanup = sweep
	}
	return &Monitor{hub: hub, sweep: sweep, cleanup: cleanup}
}

func (m *Monitor) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(m.sweep),
		gocron.NewTask(func() { m.Sweep(m.hub.Now()) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule liveness sweep: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(m.cleanup),
		gocron.NewTask(func() { m.hub.Cleanup(m.hub.Now()) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule room cleanup: %w", err)
	}

	s.Start()
	m.sched = s
	logger.Info("liveness monitor started", "sweep", m.sweep, "cleanup", m.cleanup)
	return nil
}

func (m *Monitor) Stop() error {
	if m.sched == nil {
		return nil
	}
	return m.sched.Shutdown()
}

// Sweep одна проверка всех живых матчей, возвращает число завершённых
func (m *Monitor) Sweep(now time.Time) int {
	resolved := 0
	for _, r := range m.hub.LiveRooms() {
		if r.checkLiveness(now) {
			resolved++
		}
	}
	return resolved
}

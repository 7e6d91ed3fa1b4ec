package ws

import (
	"context"
	"time"

	"codearena/internal/domain"
	"codearena/internal/metrics"
)

const historyWriteTimeout = 5 * time.Second

// HistoryStore получатель завершённых матчей (postgres, анонсы в телеграм)
type HistoryStore interface {
	SaveMatch(ctx context.Context, rec *domain.MatchRecord) error
}

// AddHistory подключает хранилище; вызывать до начала обслуживания
func (h *Hub) AddHistory(store HistoryStore) {
	h.history = append(h.history, store)
}

// record пишет асинхронно: ошибка хранилища не влияет на уже разосланный результат
func (h *Hub) record(rec domain.MatchRecord) {
	for _, store := range h.history {
		h.writes.Add(1)
		go func(store HistoryStore, rec domain.MatchRecord) {
			defer h.writes.Done()
			ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
			defer cancel()

			if err := store.SaveMatch(ctx, &rec); err != nil {
				metrics.HistoryWriteFailures.Inc()
				h.log.Error("failed to save match history", "match_id", rec.MatchID, "error", err)
			}
		}(store, rec)
	}
}

// Wait ждёт незавершённые записи истории (graceful shutdown)
func (h *Hub) Wait() {
	h.writes.Wait()
}

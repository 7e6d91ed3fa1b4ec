package matchmaking

import (
	"sync"

	"codearena/internal/domain"
)

// Pair результат подбора: First ждал в очереди, Second только что пришёл
type Pair struct {
	First  domain.Ticket
	Second domain.Ticket
}

// Queue очередь ожидания. Подбор first-come-first-paired:
// ранг и запрошенная сложность не учитываются.
type Queue struct {
	mu      sync.Mutex
	waiting []domain.Ticket
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue добавляет заявку. Если кто-то уже ждёт, оба сразу извлекаются
// и возвращаются парой. Старые заявки того же игрока вытесняются.
func (q *Queue) Enqueue(t domain.Ticket) (Pair, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(func(w domain.Ticket) bool {
		return w.ConnID == t.ConnID || w.PlayerID == t.PlayerID
	})

	if len(q.waiting) > 0 {
		first := q.waiting[0]
		q.waiting = q.waiting[1:]
		return Pair{First: first, Second: t}, true
	}

	q.waiting = append(q.waiting, t)
	return Pair{}, false
}

// Cancel снимает ожидающую заявку; false если её уже нет (например, уже в паре)
func (q *Queue) Cancel(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(func(w domain.Ticket) bool { return w.ConnID == connID }) > 0
}

// Remove то же, что Cancel, но при обрыве соединения
func (q *Queue) Remove(connID string) bool {
	return q.Cancel(connID)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

func (q *Queue) removeLocked(match func(domain.Ticket) bool) int {
	kept := q.waiting[:0]
	removed := 0
	for _, w := range q.waiting {
		if match(w) {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	// обнуляем хвост, чтобы не держать ссылки
	for i := len(kept); i < len(q.waiting); i++ {
		q.waiting[i] = domain.Ticket{}
	}
	q.waiting = kept
	return removed
}

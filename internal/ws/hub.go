package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codearena/internal/catalog"
	"codearena/internal/config"
	"codearena/internal/domain"
	"codearena/internal/logger"
	"codearena/internal/match"
	"codearena/internal/matchmaking"
	"codearena/internal/metrics"

	"github.com/google/uuid"
)

var (
	ErrUnknownMatch = errors.New("матч не найден")
	ErrNoChallenges = errors.New("каталог задач пуст")
)

// Hub точка входа для всех сообщений клиентов.
// Порядок локов: hub.mu → room.mu, комната никогда не зовёт хаб под своим локом.
type Hub struct {
	cfg      config.MatchConfig
	catalog  *catalog.Catalog
	registry *Registry
	queue    *matchmaking.Queue

	mu         sync.RWMutex
	rooms      map[string]*Room  // живые и недавно завершённые
	playerRoom map[string]string // игрок → живой матч

	history []HistoryStore
	writes  sync.WaitGroup
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Hub)

// WithClock подмена часов для тестов liveness
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithHistory хранилища, куда уходит каждый завершённый матч
func WithHistory(stores ...HistoryStore) Option {
	return func(h *Hub) { h.history = append(h.history, stores...) }
}

func NewHub(cfg config.MatchConfig, cat *catalog.Catalog, opts ...Option) *Hub {
	h := &Hub{
		cfg:        cfg,
		catalog:    cat,
		registry:   NewRegistry(),
		queue:      matchmaking.NewQueue(),
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]string),
		now:        time.Now,
		log:        logger.With("component", "hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Now() time.Time {
	return h.now()
}

func (h *Hub) Register(c *Client) {
	h.registry.Add(c)
	h.log.Debug("client registered", "conn_id", c.ID, "player_id", c.PlayerID)
}

// Dispatch разбирает одно входящее сообщение
func (h *Hub) Dispatch(c *Client, raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil || in.Type == "" {
		c.sendError(CodeBadMessage, "ожидается {type, payload}", "")
		return
	}

	switch in.Type {
	case TypeFindMatch:
		var p FindMatchPayload
		if h.decode(c, in, &p) {
			h.Enqueue(c, p)
		}
	case TypeCancelMatch:
		h.Cancel(c)
	case TypeChallengeProposal:
		var p ChallengeProposalPayload
		if !h.decode(c, in, &p) {
			return
		}
		if r := h.roomFor(c, p.MatchID); r != nil {
			r.propose(c, p)
		}
	case TypeProgressReport:
		var p ProgressReportPayload
		if !h.decode(c, in, &p) {
			return
		}
		if r := h.roomFor(c, p.MatchID); r != nil {
			r.progress(c, p)
		}
	case TypeHeartbeat:
		var p HeartbeatPayload
		if h.decode(c, in, &p) {
			h.Heartbeat(c, p.MatchID)
		}
	case TypeRejoin:
		var p MatchRefPayload
		if !h.decode(c, in, &p) {
			return
		}
		if r := h.roomFor(c, p.MatchID); r != nil {
			r.rejoin(c)
		}
	case TypeResultAck:
		var p MatchRefPayload
		if !h.decode(c, in, &p) {
			return
		}
		if r := h.roomFor(c, p.MatchID); r != nil && r.resultAck(c) {
			h.purge(r.ID)
		}
	default:
		c.sendError(CodeUnknownType, fmt.Sprintf("неизвестный тип %q", in.Type), "")
	}
}

func (h *Hub) decode(c *Client, in inbound, dst any) bool {
	if err := decodePayload(in.Payload, dst); err != nil {
		c.sendError(CodeInvalidPayload, fmt.Sprintf("%s: %v", in.Type, err), "")
		return false
	}
	return true
}

// roomFor комната по id или ошибка клиенту
func (h *Hub) roomFor(c *Client, matchID string) *Room {
	r := h.Room(matchID)
	if r == nil {
		c.sendError(CodeUnknownMatch, ErrUnknownMatch.Error(), matchID)
	}
	return r
}

// Enqueue ставит соединение в очередь или сразу создаёт матч
func (h *Hub) Enqueue(c *Client, p FindMatchPayload) {
	ticket := domain.Ticket{
		ConnID:   c.ID,
		PlayerID: c.PlayerID,
		// профиль из players важнее того, что прислал клиент
		Profile:    c.Profile.Merge(domain.Profile{Name: p.Name, Rank: p.Rank, Avatar: p.Avatar}),
		Difficulty: p.RequestedDifficulty,
	}
	if ticket.Profile.Name == "" {
		ticket.Profile.Name = "Player"
	}

	h.mu.Lock()
	if id, ok := h.playerRoom[c.PlayerID]; ok {
		if r := h.rooms[id]; r != nil && !r.Terminal() {
			h.mu.Unlock()
			c.sendError(CodeAlreadyInMatch, "игрок уже в матче, используйте rejoin", id)
			return
		}
		delete(h.playerRoom, c.PlayerID)
	}

	for {
		pair, paired := h.queue.Enqueue(ticket)
		if !paired {
			// под локом, иначе matched от параллельного подбора обгонит waiting
			c.send(Message{Type: TypeWaiting})
			h.mu.Unlock()
			metrics.QueueWaiting.Set(float64(h.queue.Len()))
			return
		}

		first, ok := h.registry.Get(pair.First.ConnID)
		if !ok {
			// соединение ушло, а заявка осталась
			h.log.Warn("stale waiting ticket dropped", "conn_id", pair.First.ConnID, "player_id", pair.First.PlayerID)
			continue
		}

		r := newRoom(uuid.NewString(), h, pair, [2]*Client{first, c})
		h.rooms[r.ID] = r
		h.playerRoom[pair.First.PlayerID] = r.ID
		h.playerRoom[pair.Second.PlayerID] = r.ID
		r.start()
		h.mu.Unlock()

		metrics.QueueWaiting.Set(float64(h.queue.Len()))
		metrics.MatchesCreated.Inc()
		metrics.MatchesLive.Inc()
		h.log.Info("match created", "match_id", r.ID, "player_a", pair.First.PlayerID, "player_b", pair.Second.PlayerID)
		return
	}
}

// Cancel повторная отмена или отмена после подбора ничего не делает
func (h *Hub) Cancel(c *Client) {
	if h.queue.Cancel(c.ID) {
		metrics.QueueWaiting.Set(float64(h.queue.Len()))
		c.send(Message{Type: TypeCancelled})
		return
	}
	c.sendAck(TypeCancelMatch, "", true)
}

func (h *Hub) Heartbeat(c *Client, matchID string) {
	metrics.Heartbeats.Inc()
	if matchID == "" {
		h.mu.RLock()
		matchID = h.playerRoom[c.PlayerID]
		h.mu.RUnlock()
	}
	if r := h.Room(matchID); r != nil {
		r.heartbeat(c)
	}
}

// Disconnect соединение закрылось: очередь чистится, живой матч узнаёт о потере
func (h *Hub) Disconnect(c *Client) {
	h.registry.Remove(c.ID)
	if h.queue.Remove(c.ID) {
		metrics.QueueWaiting.Set(float64(h.queue.Len()))
	}

	h.mu.RLock()
	r := h.rooms[h.playerRoom[c.PlayerID]]
	h.mu.RUnlock()
	if r != nil {
		r.dropped(c)
	}
	h.log.Debug("client disconnected", "conn_id", c.ID, "player_id", c.PlayerID)
}

// Resolve внешнее завершение матча (админка, тесты). winnerID пустой = без победителя.
// Повторный вызов возвращает уже зафиксированный исход.
func (h *Hub) Resolve(matchID string, state match.State, winnerID string) (match.Outcome, error) {
	r := h.Room(matchID)
	if r == nil {
		return match.Outcome{}, ErrUnknownMatch
	}
	return r.resolveExternal(state, winnerID)
}

func (h *Hub) Room(id string) *Room {
	if id == "" {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[id]
}

// MatchView снимок матча для REST
func (h *Hub) MatchView(id string) (match.View, bool) {
	r := h.Room(id)
	if r == nil {
		return match.View{}, false
	}
	return r.View(), true
}

// LiveRooms нетерминальные комнаты
func (h *Hub) LiveRooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		if !r.Terminal() {
			out = append(out, r)
		}
	}
	return out
}

func (h *Hub) Waiting() int {
	return h.queue.Len()
}

func (h *Hub) Connections() int {
	return h.registry.Len()
}

// finish вызывается комнатой ровно один раз, после снятия её лока
func (h *Hub) finish(r *Room, rec domain.MatchRecord) {
	h.mu.Lock()
	for _, pid := range r.players {
		if h.playerRoom[pid] == r.ID {
			delete(h.playerRoom, pid)
		}
	}
	h.mu.Unlock()

	metrics.MatchesLive.Dec()
	metrics.MatchesResolved.WithLabelValues(string(rec.Reason)).Inc()
	h.record(rec)
}

func (h *Hub) purge(id string) {
	h.mu.Lock()
	delete(h.rooms, id)
	h.mu.Unlock()
	h.log.Debug("room purged", "match_id", id)
}

// Cleanup удаляет завершённые комнаты старше FinishedRetention
func (h *Hub) Cleanup(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, r := range h.rooms {
		if r.expired(now, h.cfg.FinishedRetention) {
			delete(h.rooms, id)
			removed++
		}
	}
	if removed > 0 {
		h.log.Info("finished rooms cleaned", "removed", removed, "left", len(h.rooms))
	}
	return removed
}

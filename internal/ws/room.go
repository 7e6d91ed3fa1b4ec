package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"codearena/internal/config"
	"codearena/internal/domain"
	"codearena/internal/logger"
	"codearena/internal/match"
	"codearena/internal/matchmaking"
	"codearena/internal/metrics"
)

type seat struct {
	client    *Client
	connected bool
	lastSeen  time.Time
	suspect   bool // сопернику уже ушло opponentDisconnected
	acked     bool
}

// Room владелец одной match.Session. Все переходы идут под r.mu,
// исходящие сообщения кладутся в Send под тем же локом, так что
// порядок событий у каждого участника совпадает с порядком переходов.
type Room struct {
	ID      string
	hub     *Hub
	cfg     config.MatchConfig
	log     *slog.Logger
	players [2]string // неизменяемы после создания

	mu      sync.Mutex
	session *match.Session
	seats   [2]*seat
	timer   *time.Timer
	endedAt time.Time
}

func newRoom(id string, hub *Hub, pair matchmaking.Pair, clients [2]*Client) *Room {
	now := hub.now()
	r := &Room{
		ID:      id,
		hub:     hub,
		cfg:     hub.cfg,
		log:     logger.ForMatch(id),
		players: [2]string{pair.First.PlayerID, pair.Second.PlayerID},
		session: match.New(id, pair.First, pair.Second, now),
	}
	for i, c := range clients {
		r.seats[i] = &seat{client: c, connected: true, lastSeen: now}
	}
	return r
}

// start рассылает matched и ждёт предложение задачи
func (r *Room) start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session.Terminal() {
		return
	}
	for i := range r.seats {
		opp := r.session.Players[match.Opponent(i)]
		r.emitLocked(i, Message{Type: TypeMatched, Payload: MatchedPayload{
			MatchID:         r.ID,
			OpponentProfile: opp.Profile,
		}})
	}
	r.armLocked(r.cfg.ChallengeGrace, match.StatePendingChallenge)
}

func (r *Room) Terminal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Terminal()
}

func (r *Room) View() match.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.View()
}

// armLocked таймер фазы; срабатывание проверяет, что фаза не сменилась
func (r *Room) armLocked(d time.Duration, phase match.State) {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(d, func() { r.onPhaseTimeout(phase) })
}

func (r *Room) onPhaseTimeout(phase match.State) {
	var rec *domain.MatchRecord

	r.mu.Lock()
	if r.session.State != phase {
		// устаревший таймер
		r.mu.Unlock()
		return
	}
	switch phase {
	case match.StatePendingChallenge:
		rec = r.fallbackLocked()
	case match.StateCountdown:
		r.activateLocked()
	case match.StateActive:
		_, rec, _ = r.resolveLocked(r.session.TimeOut)
	}
	r.mu.Unlock()

	r.afterResolve(rec)
}

// fallbackLocked никто не предложил задачу вовремя: берём дефолтную
func (r *Room) fallbackLocked() *domain.MatchRecord {
	d := r.session.Players[0].Difficulty
	if d == "" {
		d = domain.Difficulty(r.cfg.DefaultDifficulty)
	}
	ch, ok := r.hub.catalog.Default(d)
	if !ok {
		r.log.Error("cannot assign challenge", "error", ErrNoChallenges)
		_, rec, _ := r.resolveLocked(r.session.Abandon)
		return rec
	}
	metrics.ChallengeFallbacks.Inc()
	r.log.Info("challenge assigned by fallback", "challenge_id", ch.ID, "difficulty", ch.Difficulty)
	r.commitLocked(ch, ch.Difficulty)
	return nil
}

// commitLocked true если задача зафиксирована этим вызовом
func (r *Room) commitLocked(ch domain.Challenge, d domain.Difficulty) (bool, error) {
	first, err := r.session.CommitChallenge(ch.ID, d)
	if err != nil || !first {
		return first, err
	}

	def := ch
	r.broadcastLocked(Message{Type: TypeChallengeAssigned, Payload: ChallengeAssignedPayload{
		MatchID:     r.ID,
		ChallengeID: ch.ID,
		Difficulty:  d,
		Challenge:   &def,
	}})
	r.broadcastLocked(Message{Type: TypeCountdown, Payload: CountdownPayload{
		MatchID: r.ID,
		Seconds: int(r.cfg.Countdown / time.Second),
	}})
	r.armLocked(r.cfg.Countdown, match.StateCountdown)
	return true, nil
}

func (r *Room) activateLocked() {
	now := r.hub.now()
	if err := r.session.Activate(now, r.cfg.Duration); err != nil {
		r.log.Warn("activate", "error", err)
		return
	}
	// отсчёт тишины начинается заново вместе с окном решения
	for _, s := range r.seats {
		if s.lastSeen.Before(now) {
			s.lastSeen = now
		}
	}
	r.broadcastLocked(Message{Type: TypeMatchStarted, Payload: MatchStartedPayload{
		MatchID:     r.ID,
		StartedAt:   r.session.StartedAt,
		Deadline:    r.session.Deadline,
		DurationSec: int(r.cfg.Duration / time.Second),
	}})
	r.armLocked(r.cfg.Duration, match.StateActive)
	r.log.Info("match started", "challenge_id", r.session.ChallengeID, "deadline", r.session.Deadline)
}

// seatOfLocked место по текущему соединению; сообщения со старых соединений отбрасываются
func (r *Room) seatOfLocked(c *Client) (int, string) {
	i, ok := r.session.Seat(c.PlayerID)
	if !ok {
		return -1, CodeNotParticipant
	}
	if s := r.seats[i]; s.client == nil || s.client.ID != c.ID {
		return -1, CodeStaleConnection
	}
	return i, ""
}

// claimSeatLocked как seatOfLocked, но новое соединение игрока с matchId
// занимает место так же, как rejoin. Старое получает stale_connection.
func (r *Room) claimSeatLocked(c *Client) (int, string) {
	i, ok := r.session.Seat(c.PlayerID)
	if !ok {
		return -1, CodeNotParticipant
	}
	s := r.seats[i]
	if s.client != nil && s.client.ID == c.ID {
		return i, ""
	}
	if r.session.Terminal() {
		// поздние сообщения всё равно только подтверждаются
		return i, ""
	}
	if s.client != nil && s.client.seq > c.seq {
		return -1, CodeStaleConnection
	}
	r.rebindLocked(i, c)
	return i, ""
}

// rebindLocked c становится текущим соединением места i
func (r *Room) rebindLocked(i int, c *Client) {
	s := r.seats[i]
	s.client = c
	s.connected = true
	s.lastSeen = r.hub.now()
	s.suspect = false

	notice := MatchNoticePayload{MatchID: r.ID}
	r.emitLocked(match.Opponent(i), Message{Type: TypeOpponentReconnected, Payload: notice})
	c.send(Message{Type: TypeOpponentReconnected, Payload: notice})
	c.send(Message{Type: TypeMatchState, Payload: r.session.View()})
	metrics.Reconnects.Inc()
	r.log.Info("player rejoined", "player_id", c.PlayerID, "conn_id", c.ID)
}

func (r *Room) propose(c *Client, p ChallengeProposalPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, code := r.claimSeatLocked(c); code != "" {
		c.sendError(code, "предложение отклонено", r.ID)
		return
	}
	if r.session.Terminal() {
		c.sendAck(TypeChallengeProposal, r.ID, true)
		return
	}
	ch, ok := r.hub.catalog.Get(p.ChallengeID)
	if !ok {
		c.sendError(CodeUnknownChallenge, "задачи нет в каталоге", r.ID)
		return
	}
	d := p.Difficulty
	if d == "" {
		d = ch.Difficulty
	}

	first, err := r.commitLocked(ch, d)
	if err != nil {
		r.log.Debug("proposal rejected", "player_id", c.PlayerID, "error", err)
	}
	if !first {
		// задача уже выбрана, выигрывает первое предложение
		c.sendAck(TypeChallengeProposal, r.ID, true)
		return
	}
	r.log.Info("challenge committed", "challenge_id", ch.ID, "proposed_by", c.PlayerID)
}

func (r *Room) progress(c *Client, p ProgressReportPayload) {
	var rec *domain.MatchRecord

	r.mu.Lock()
	i, code := r.claimSeatLocked(c)
	if code != "" {
		r.mu.Unlock()
		c.sendError(code, "отчёт отклонён", r.ID)
		return
	}

	err := r.session.ReportProgress(i, p.Percent, p.Completed)
	switch {
	case errors.Is(err, match.ErrTerminal):
		c.sendAck(TypeProgressReport, r.ID, true)
	case errors.Is(err, match.ErrNotActive):
		c.sendError(CodeNotActive, err.Error(), r.ID)
	case err != nil:
		c.sendError(CodeInvalidPayload, err.Error(), r.ID)
	default:
		me := r.session.Players[i]
		r.emitLocked(match.Opponent(i), Message{Type: TypeOpponentProgress, Payload: OpponentProgressPayload{
			MatchID:   r.ID,
			Percent:   me.Progress,
			Completed: me.Completed,
		}})
		metrics.ProgressRelayed.Inc()
		if me.Completed {
			_, rec, _ = r.resolveLocked(func(now time.Time) (match.Outcome, bool, error) {
				return r.session.Win(i, now)
			})
		}
	}
	r.mu.Unlock()

	r.afterResolve(rec)
}

func (r *Room) heartbeat(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, code := r.claimSeatLocked(c)
	if code != "" {
		c.sendError(code, "heartbeat отклонён", r.ID)
		return
	}
	if r.session.Terminal() {
		c.sendAck(TypeHeartbeat, r.ID, true)
		return
	}
	s := r.seats[i]
	s.lastSeen = r.hub.now()
	if s.suspect {
		s.suspect = false
		r.broadcastLocked(Message{Type: TypeOpponentReconnected, Payload: MatchNoticePayload{MatchID: r.ID}})
	}
}

// rejoin новое соединение занимает место игрока
func (r *Room) rejoin(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.session.Seat(c.PlayerID)
	if !ok {
		c.sendError(CodeNotParticipant, match.ErrNotParticipant.Error(), r.ID)
		return
	}
	if r.session.Terminal() {
		c.send(Message{Type: TypeMatchState, Payload: r.session.View()})
		c.send(r.endedMessageLocked(i))
		return
	}

	r.rebindLocked(i, c)
}

// resultAck true когда обе стороны подтвердили результат
func (r *Room) resultAck(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.session.Seat(c.PlayerID)
	if !ok || !r.session.Terminal() {
		c.sendAck(TypeResultAck, r.ID, true)
		return false
	}
	r.seats[i].acked = true
	return r.seats[0].acked && r.seats[1].acked
}

// dropped сокет текущего соединения закрылся
func (r *Room) dropped(c *Client) {
	var rec *domain.MatchRecord

	r.mu.Lock()
	i, code := r.seatOfLocked(c)
	if code != "" || r.session.Terminal() {
		r.mu.Unlock()
		return
	}
	s := r.seats[i]
	s.connected = false

	switch r.session.State {
	case match.StatePendingChallenge, match.StateCountdown:
		// до старта ждать некого
		_, rec, _ = r.resolveLocked(func(now time.Time) (match.Outcome, bool, error) {
			return r.session.ForfeitBy(i, now)
		})
	case match.StateActive:
		if !s.suspect {
			s.suspect = true
			r.emitLocked(match.Opponent(i), Message{Type: TypeOpponentDisconnected, Payload: MatchNoticePayload{MatchID: r.ID}})
		}
	}
	r.mu.Unlock()

	r.log.Info("player connection dropped", "player_id", c.PlayerID, "seat", i)
	r.afterResolve(rec)
}

// checkLiveness true если матч завершён этой проверкой
func (r *Room) checkLiveness(now time.Time) bool {
	var rec *domain.MatchRecord

	r.mu.Lock()
	if r.session.Terminal() {
		r.mu.Unlock()
		return false
	}

	forfeitAfter := r.cfg.ForfeitAfter()
	suspectAfter := r.cfg.HeartbeatInterval * time.Duration(r.cfg.MissedBeats-1)

	var silent []int
	for i, s := range r.seats {
		idle := now.Sub(s.lastSeen)
		if idle > forfeitAfter {
			silent = append(silent, i)
			continue
		}
		if suspectAfter > 0 && idle > suspectAfter && !s.suspect {
			s.suspect = true
			r.emitLocked(match.Opponent(i), Message{Type: TypeOpponentDisconnected, Payload: MatchNoticePayload{MatchID: r.ID}})
		}
	}

	switch len(silent) {
	case 1:
		r.log.Info("player silent, forfeit", "player_id", r.players[silent[0]])
		loser := silent[0]
		_, rec, _ = r.resolveLocked(func(now time.Time) (match.Outcome, bool, error) {
			return r.session.ForfeitBy(loser, now)
		})
	case 2:
		r.log.Info("both players silent, match abandoned")
		_, rec, _ = r.resolveLocked(r.session.Abandon)
	}
	r.mu.Unlock()

	r.afterResolve(rec)
	return rec != nil
}

func (r *Room) resolveExternal(state match.State, winnerID string) (match.Outcome, error) {
	var rec *domain.MatchRecord

	r.mu.Lock()
	winner := match.NoWinner
	if winnerID != "" {
		i, ok := r.session.Seat(winnerID)
		if !ok {
			r.mu.Unlock()
			return match.Outcome{}, match.ErrNotParticipant
		}
		winner = i
	}

	reason := domain.EndReasonForfeit
	switch state {
	case match.StateWon:
		reason = domain.EndReasonSolved
	case match.StateTimedOut:
		reason = domain.EndReasonTimeout
	}

	o, rec, err := r.resolveLocked(func(now time.Time) (match.Outcome, bool, error) {
		return r.session.Resolve(state, reason, winner, now)
	})
	r.mu.Unlock()

	r.afterResolve(rec)
	return o, err
}

// resolveLocked единственное место, где фиксируется исход.
// Запись для истории возвращается только первому вызову.
func (r *Room) resolveLocked(resolve func(now time.Time) (match.Outcome, bool, error)) (match.Outcome, *domain.MatchRecord, error) {
	now := r.hub.now()
	o, first, err := resolve(now)
	if err != nil {
		r.log.Warn("resolve rejected", "state", r.session.State, "error", err)
		return o, nil, err
	}
	if !first {
		return o, nil, nil
	}

	if r.timer != nil {
		r.timer.Stop()
	}
	r.endedAt = now
	for i := range r.seats {
		r.emitLocked(i, r.endedMessageLocked(i))
	}

	r.log.Info("match resolved", "state", o.State, "reason", o.Reason, "winner_id", o.WinnerID)
	rec := r.session.Record()
	return o, &rec, nil
}

func (r *Room) endedMessageLocked(i int) Message {
	o := r.session.Outcome
	p := MatchEndedPayload{MatchID: r.ID, Reason: o.Reason, You: "draw"}
	if o.HasWinner() {
		id := o.WinnerID
		p.WinnerID = &id
		p.You = "lose"
		if o.Winner == i {
			p.You = "win"
		}
	}
	return Message{Type: TypeMatchEnded, Payload: p}
}

func (r *Room) afterResolve(rec *domain.MatchRecord) {
	if rec != nil {
		r.hub.finish(r, *rec)
	}
}

// expired завершённая комната пережила retention
func (r *Room) expired(now time.Time, retention time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Terminal() && now.Sub(r.endedAt) > retention
}

func (r *Room) emitLocked(i int, msg Message) {
	s := r.seats[i]
	if s.client == nil || !s.connected {
		return
	}
	s.client.send(msg)
}

func (r *Room) broadcastLocked(msg Message) {
	for i := range r.seats {
		r.emitLocked(i, msg)
	}
}

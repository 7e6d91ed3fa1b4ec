package match

import (
	"errors"
	"time"

	"codearena/internal/domain"
)

type State string

const (
	StatePendingChallenge State = "pending_challenge"
	StateCountdown        State = "countdown"
	StateActive           State = "active"
	StateWon              State = "won"
	StateTimedOut         State = "timed_out"
	StateForfeited        State = "forfeited"
)

// Terminal терминальные состояния липкие
func (s State) Terminal() bool {
	return s == StateWon || s == StateTimedOut || s == StateForfeited
}

// NoWinner индекс места, когда победителя нет
const NoWinner = -1

var (
	ErrTerminal       = errors.New("матч уже завершён")
	ErrNotActive      = errors.New("матч не в активной фазе")
	ErrWrongPhase     = errors.New("переход недопустим в текущей фазе")
	ErrNotParticipant = errors.New("не участник матча")
	ErrBadPercent     = errors.New("процент вне диапазона 0..100")
	ErrEmptyChallenge = errors.New("пустой идентификатор задачи")
	ErrNotTerminal    = errors.New("состояние не терминальное")
	ErrBadWinner      = errors.New("некорректный победитель для исхода")
)

type Participant struct {
	domain.Ticket
	Progress  int
	Completed bool
}

type Outcome struct {
	State    State            `json:"state"`
	Reason   domain.EndReason `json:"reason"`
	Winner   int              `json:"-"`
	WinnerID string           `json:"winnerId,omitempty"`
	At       time.Time        `json:"at"`
}

// HasWinner есть ли победитель
func (o Outcome) HasWinner() bool {
	return o.Winner != NoWinner
}

// Session не потокобезопасна: все вызовы сериализует владелец (комната матча).
type Session struct {
	ID          string
	Players     [2]Participant
	ChallengeID string
	Difficulty  domain.Difficulty
	State       State
	CreatedAt   time.Time
	StartedAt   time.Time
	Deadline    time.Time
	Outcome     *Outcome
	Forfeit     bool
}

// New создаёт сессию в PENDING_CHALLENGE
func New(id string, a, b domain.Ticket, now time.Time) *Session {
	return &Session{
		ID: id,
		Players: [2]Participant{
			{Ticket: a},
			{Ticket: b},
		},
		State:     StatePendingChallenge,
		CreatedAt: now,
	}
}

// Seat место игрока в матче
func (s *Session) Seat(playerID string) (int, bool) {
	for i, p := range s.Players {
		if p.PlayerID == playerID {
			return i, true
		}
	}
	return -1, false
}

// Opponent место соперника
func Opponent(seat int) int {
	return 1 - seat
}

// Terminal завершён ли матч
func (s *Session) Terminal() bool {
	return s.Outcome != nil
}

// CommitChallenge compare-and-set поля задачи: первое предложение побеждает.
// Возвращает true, если именно этот вызов зафиксировал задачу.
func (s *Session) CommitChallenge(challengeID string, difficulty domain.Difficulty) (bool, error) {
	if s.Terminal() {
		return false, ErrTerminal
	}
	if challengeID == "" {
		return false, ErrEmptyChallenge
	}
	if s.ChallengeID != "" {
		return false, nil
	}
	if s.State != StatePendingChallenge {
		return false, ErrWrongPhase
	}

	s.ChallengeID = challengeID
	s.Difficulty = difficulty
	s.State = StateCountdown
	return true, nil
}

// Activate открывает окно решения
func (s *Session) Activate(now time.Time, window time.Duration) error {
	if s.Terminal() {
		return ErrTerminal
	}
	if s.State != StateCountdown {
		return ErrWrongPhase
	}
	s.State = StateActive
	s.StartedAt = now
	s.Deadline = now.Add(window)
	return nil
}

// ReportProgress обновляет прогресс участника
func (s *Session) ReportProgress(seat, percent int, completed bool) error {
	if seat < 0 || seat > 1 {
		return ErrNotParticipant
	}
	if s.Terminal() {
		return ErrTerminal
	}
	if s.State != StateActive {
		return ErrNotActive
	}
	if percent < 0 || percent > 100 {
		return ErrBadPercent
	}

	p := &s.Players[seat]
	p.Progress = percent
	if completed {
		p.Completed = true
		p.Progress = 100
	}
	return nil
}

// Resolve идемпотентно фиксирует исход. Первый вызов побеждает,
// остальные возвращают уже зафиксированный исход и false.
func (s *Session) Resolve(state State, reason domain.EndReason, winner int, now time.Time) (Outcome, bool, error) {
	if s.Outcome != nil {
		return *s.Outcome, false, nil
	}
	if !state.Terminal() {
		return Outcome{}, false, ErrNotTerminal
	}
	switch state {
	case StateWon:
		if winner != 0 && winner != 1 {
			return Outcome{}, false, ErrBadWinner
		}
	case StateTimedOut:
		if winner != NoWinner {
			return Outcome{}, false, ErrBadWinner
		}
	case StateForfeited:
		if winner != NoWinner && winner != 0 && winner != 1 {
			return Outcome{}, false, ErrBadWinner
		}
	}

	o := Outcome{
		State:  state,
		Reason: reason,
		Winner: winner,
		At:     now,
	}
	if winner != NoWinner {
		o.WinnerID = s.Players[winner].PlayerID
	}

	s.Outcome = &o
	s.State = state
	s.Forfeit = state == StateForfeited
	return o, true, nil
}

// Win участник решил задачу
func (s *Session) Win(seat int, now time.Time) (Outcome, bool, error) {
	return s.Resolve(StateWon, domain.EndReasonSolved, seat, now)
}

// TimeOut дедлайн истёк, победителя нет
func (s *Session) TimeOut(now time.Time) (Outcome, bool, error) {
	return s.Resolve(StateTimedOut, domain.EndReasonTimeout, NoWinner, now)
}

// ForfeitBy форфейт против loser, победа сопернику
func (s *Session) ForfeitBy(loser int, now time.Time) (Outcome, bool, error) {
	if loser != 0 && loser != 1 {
		return Outcome{}, false, ErrNotParticipant
	}
	return s.Resolve(StateForfeited, domain.EndReasonForfeit, Opponent(loser), now)
}

// Abandon оба участника пропали
func (s *Session) Abandon(now time.Time) (Outcome, bool, error) {
	return s.Resolve(StateForfeited, domain.EndReasonForfeit, NoWinner, now)
}

// Record запись для истории; только для завершённой сессии
func (s *Session) Record() domain.MatchRecord {
	a, b := s.Players[0], s.Players[1]
	rec := domain.MatchRecord{
		MatchID:     s.ID,
		PlayerAID:   a.PlayerID,
		PlayerBID:   b.PlayerID,
		PlayerA:     a.Profile,
		PlayerB:     b.Profile,
		ChallengeID: s.ChallengeID,
		Difficulty:  s.Difficulty,
		ProgressA:   a.Progress,
		ProgressB:   b.Progress,
	}
	if s.Outcome != nil {
		rec.Reason = s.Outcome.Reason
		rec.EndedAt = s.Outcome.At
		if s.Outcome.HasWinner() {
			id := s.Outcome.WinnerID
			rec.WinnerID = &id
		}
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		rec.StartedAt = &started
		if !rec.EndedAt.IsZero() {
			rec.CompletionMS = rec.EndedAt.Sub(started).Milliseconds()
		}
	}
	return rec
}

package domain

import "time"

// Причина завершения матча
type EndReason string

const (
	EndReasonSolved  EndReason = "solved"
	EndReasonTimeout EndReason = "timeout"
	EndReasonForfeit EndReason = "forfeit"
)

// Запись истории матча, уходит во внешнее хранилище после завершения
type MatchRecord struct {
	MatchID     string     `db:"match_id" json:"match_id"`
	PlayerAID   string     `db:"player_a_id" json:"player_a_id"`
	PlayerBID   string     `db:"player_b_id" json:"player_b_id"`
	PlayerA     Profile    `json:"player_a"`
	PlayerB     Profile    `json:"player_b"`
	WinnerID    *string    `db:"winner_id" json:"winner_id,omitempty"` // nil = ничья/таймаут
	Reason      EndReason  `db:"reason" json:"reason"`
	ChallengeID string     `db:"challenge_id" json:"challenge_id"`
	Difficulty  Difficulty `db:"difficulty" json:"difficulty"`
	ProgressA   int        `db:"progress_a" json:"progress_a"`
	ProgressB   int        `db:"progress_b" json:"progress_b"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"` // nil если до ACTIVE не дошли
	EndedAt     time.Time  `db:"ended_at" json:"ended_at"`
	// время от старта до завершения в мс, 0 если не стартовали
	CompletionMS int64 `db:"completion_ms" json:"completion_ms"`
}

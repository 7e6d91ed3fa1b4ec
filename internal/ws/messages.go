package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"codearena/internal/domain"

	"github.com/go-playground/validator/v10"
)

// клиент → сервис
const (
	TypeFindMatch         = "findMatch"
	TypeCancelMatch       = "cancelMatch"
	TypeChallengeProposal = "challengeProposal"
	TypeProgressReport    = "progressReport"
	TypeHeartbeat         = "heartbeat"
	TypeRejoin            = "rejoin"
	TypeResultAck         = "resultAck"
)

// сервис → клиент
const (
	TypeReady                = "ready"
	TypeWaiting              = "waiting"
	TypeCancelled            = "cancelled"
	TypeMatched              = "matched"
	TypeChallengeAssigned    = "challengeAssigned"
	TypeCountdown            = "countdown"
	TypeMatchStarted         = "matchStarted"
	TypeOpponentProgress     = "opponentProgress"
	TypeOpponentDisconnected = "opponentDisconnected"
	TypeOpponentReconnected  = "opponentReconnected"
	TypeMatchEnded           = "matchEnded"
	TypeMatchState           = "matchState"
	TypeAck                  = "ack"
	TypeError                = "error"
)

// коды ошибок протокола
const (
	CodeBadMessage       = "bad_message"
	CodeInvalidPayload   = "invalid_payload"
	CodeUnknownType      = "unknown_type"
	CodeUnknownMatch     = "unknown_match"
	CodeNotParticipant   = "not_participant"
	CodeStaleConnection  = "stale_connection"
	CodeAlreadyInMatch   = "already_in_match"
	CodeUnknownChallenge = "unknown_challenge"
	CodeNotActive        = "not_active"
)

// Message конверт для обоих направлений
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type FindMatchPayload struct {
	Name                string            `json:"name" validate:"max=64"`
	Rank                string            `json:"rank" validate:"max=32"`
	Avatar              string            `json:"avatar" validate:"max=512"`
	RequestedDifficulty domain.Difficulty `json:"requestedDifficulty" validate:"omitempty,oneof=easy medium hard"`
}

type ChallengeProposalPayload struct {
	MatchID     string            `json:"matchId" validate:"required"`
	ChallengeID string            `json:"challengeId" validate:"required,max=128"`
	Difficulty  domain.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type ProgressReportPayload struct {
	MatchID   string `json:"matchId" validate:"required"`
	Percent   int    `json:"percent" validate:"gte=0,lte=100"`
	Completed bool   `json:"completed"`
}

// HeartbeatPayload matchId необязателен: берётся текущий матч игрока
type HeartbeatPayload struct {
	MatchID string `json:"matchId"`
}

// MatchRefPayload rejoin / resultAck
type MatchRefPayload struct {
	MatchID string `json:"matchId" validate:"required"`
}

type ReadyPayload struct {
	ConnectionID string `json:"connectionId"`
}

type MatchedPayload struct {
	MatchID         string         `json:"matchId"`
	OpponentProfile domain.Profile `json:"opponentProfile"`
}

type ChallengeAssignedPayload struct {
	MatchID     string            `json:"matchId"`
	ChallengeID string            `json:"challengeId"`
	Difficulty  domain.Difficulty `json:"difficulty,omitempty"`
	Challenge   *domain.Challenge `json:"challenge,omitempty"`
}

type CountdownPayload struct {
	MatchID string `json:"matchId"`
	Seconds int    `json:"seconds"`
}

type MatchStartedPayload struct {
	MatchID     string    `json:"matchId"`
	StartedAt   time.Time `json:"startedAt"`
	Deadline    time.Time `json:"deadline"`
	DurationSec int       `json:"durationSec"`
}

type OpponentProgressPayload struct {
	MatchID   string `json:"matchId"`
	Percent   int    `json:"percent"`
	Completed bool   `json:"completed"`
}

// MatchNoticePayload opponentDisconnected / opponentReconnected
type MatchNoticePayload struct {
	MatchID string `json:"matchId"`
}

type MatchEndedPayload struct {
	MatchID  string           `json:"matchId"`
	WinnerID *string          `json:"winnerId"` // null если победителя нет
	Reason   domain.EndReason `json:"reason"`
	You      string           `json:"you"` // win / lose / draw
}

type AckPayload struct {
	Ref     string `json:"ref"`
	MatchID string `json:"matchId,omitempty"`
	Ignored bool   `json:"ignored"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	MatchID string `json:"matchId,omitempty"`
}

var validate = validator.New()

var errEmptyPayload = errors.New("payload обязателен")

// decodePayload разбирает и валидирует payload.
// Пустой payload допустим, если структура проходит валидацию с нулевыми значениями.
func decodePayload(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, dst); err != nil {
			return err
		}
	}
	if err := validate.Struct(dst); err != nil {
		if len(trimmed) == 0 {
			return errEmptyPayload
		}
		return err
	}
	return nil
}

func encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

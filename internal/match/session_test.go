package match

import (
	"encoding/json"
	"testing"
	"time"

	"codearena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newSession() *Session {
	a := domain.Ticket{ConnID: "c-a", PlayerID: "alice", Profile: domain.Profile{Name: "Alice"}}
	b := domain.Ticket{ConnID: "c-b", PlayerID: "bob", Profile: domain.Profile{Name: "Bob"}}
	return New("m1", a, b, t0)
}

func activeSession(t *testing.T) *Session {
	t.Helper()
	s := newSession()
	first, err := s.CommitChallenge("fizzbuzz", domain.DifficultyEasy)
	require.NoError(t, err)
	require.True(t, first)
	require.NoError(t, s.Activate(t0, 420*time.Second))
	return s
}

func TestCommitChallengeFirstWins(t *testing.T) {
	s := newSession()
	require.Equal(t, StatePendingChallenge, s.State)

	first, err := s.CommitChallenge("fizzbuzz", domain.DifficultyEasy)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, StateCountdown, s.State)

	// второе предложение подтверждается, но игнорируется
	first, err = s.CommitChallenge("palindrome", domain.DifficultyHard)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, "fizzbuzz", s.ChallengeID)
	assert.Equal(t, domain.DifficultyEasy, s.Difficulty)
}

func TestCommitChallengeRejectsEmpty(t *testing.T) {
	s := newSession()
	_, err := s.CommitChallenge("", domain.DifficultyEasy)
	assert.ErrorIs(t, err, ErrEmptyChallenge)
	assert.Equal(t, StatePendingChallenge, s.State)
}

func TestActivateSetsDeadline(t *testing.T) {
	s := newSession()
	assert.ErrorIs(t, s.Activate(t0, time.Minute), ErrWrongPhase)

	s = activeSession(t)
	assert.Equal(t, StateActive, s.State)
	assert.Equal(t, t0.Add(420*time.Second), s.Deadline)
}

func TestReportProgress(t *testing.T) {
	s := newSession()
	assert.ErrorIs(t, s.ReportProgress(0, 10, false), ErrNotActive)

	s = activeSession(t)
	require.NoError(t, s.ReportProgress(0, 40, false))
	assert.Equal(t, 40, s.Players[0].Progress)

	assert.ErrorIs(t, s.ReportProgress(1, 101, false), ErrBadPercent)
	assert.ErrorIs(t, s.ReportProgress(1, -1, false), ErrBadPercent)
	assert.ErrorIs(t, s.ReportProgress(2, 10, false), ErrNotParticipant)

	require.NoError(t, s.ReportProgress(1, 80, true))
	assert.True(t, s.Players[1].Completed)
	assert.Equal(t, 100, s.Players[1].Progress)
}

func TestResolveIsIdempotent(t *testing.T) {
	s := activeSession(t)

	o, first, err := s.Win(0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, first)
	assert.Equal(t, StateWon, o.State)
	assert.Equal(t, "alice", o.WinnerID)

	// поздний форфейт не меняет исход
	o2, first, err := s.ForfeitBy(0, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, o, o2)
	assert.Equal(t, StateWon, s.State)
	assert.False(t, s.Forfeit)
}

func TestTerminalIsSticky(t *testing.T) {
	s := activeSession(t)
	_, _, err := s.TimeOut(t0.Add(420 * time.Second))
	require.NoError(t, err)

	assert.ErrorIs(t, s.ReportProgress(0, 50, false), ErrTerminal)
	_, err = s.CommitChallenge("other", domain.DifficultyEasy)
	assert.ErrorIs(t, err, ErrTerminal)
	assert.ErrorIs(t, s.Activate(t0, time.Minute), ErrTerminal)
	assert.Equal(t, 0, s.Players[0].Progress)
}

func TestResolveValidatesWinner(t *testing.T) {
	s := activeSession(t)
	_, _, err := s.Resolve(StateActive, domain.EndReasonSolved, 0, t0)
	assert.ErrorIs(t, err, ErrNotTerminal)
	_, _, err = s.Resolve(StateTimedOut, domain.EndReasonTimeout, 1, t0)
	assert.ErrorIs(t, err, ErrBadWinner)
	_, _, err = s.Resolve(StateWon, domain.EndReasonSolved, NoWinner, t0)
	assert.ErrorIs(t, err, ErrBadWinner)
	assert.False(t, s.Terminal())
}

func TestForfeitAndRecord(t *testing.T) {
	s := activeSession(t)
	require.NoError(t, s.ReportProgress(0, 60, false))

	o, first, err := s.ForfeitBy(1, t0.Add(90*time.Second))
	require.NoError(t, err)
	require.True(t, first)
	assert.Equal(t, "alice", o.WinnerID)
	assert.True(t, s.Forfeit)

	rec := s.Record()
	require.NotNil(t, rec.WinnerID)
	assert.Equal(t, "alice", *rec.WinnerID)
	assert.Equal(t, domain.EndReasonForfeit, rec.Reason)
	assert.Equal(t, "fizzbuzz", rec.ChallengeID)
	assert.Equal(t, 60, rec.ProgressA)
	assert.Equal(t, int64(90_000), rec.CompletionMS)
}

func TestTimeoutRecordHasNoWinner(t *testing.T) {
	s := activeSession(t)
	_, _, err := s.TimeOut(t0.Add(420 * time.Second))
	require.NoError(t, err)

	rec := s.Record()
	assert.Nil(t, rec.WinnerID)
	assert.Equal(t, domain.EndReasonTimeout, rec.Reason)

	v := s.View()
	require.NotNil(t, v.Outcome)
	assert.Empty(t, v.Outcome.WinnerID)
}

func TestAbandonBeforeStart(t *testing.T) {
	s := newSession()
	o, first, err := s.Abandon(t0)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, o.HasWinner())

	rec := s.Record()
	assert.Nil(t, rec.StartedAt)
	assert.Zero(t, rec.CompletionMS)
}

func TestViewJSONCamelCase(t *testing.T) {
	s := activeSession(t)
	_, _, err := s.Win(1, t0.Add(time.Minute))
	require.NoError(t, err)

	raw, err := json.Marshal(s.View())
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "m1", v["matchId"])

	parts := v["participants"].([]any)
	first := parts[0].(map[string]any)
	assert.Equal(t, "alice", first["playerId"])
	assert.NotContains(t, first, "player_id")

	outcome := v["outcome"].(map[string]any)
	assert.Equal(t, "bob", outcome["winnerId"])
	assert.NotContains(t, outcome, "winner_id")
}

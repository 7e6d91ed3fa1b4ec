package match

import (
	"time"

	"codearena/internal/domain"
)

// ParticipantView публичная часть участника (без connection id)
type ParticipantView struct {
	PlayerID  string         `json:"playerId"`
	Profile   domain.Profile `json:"profile"`
	Progress  int            `json:"progress"`
	Completed bool           `json:"completed"`
}

// View снимок сессии для клиента и REST
type View struct {
	MatchID      string             `json:"matchId"`
	State        State              `json:"state"`
	ChallengeID  string             `json:"challengeId,omitempty"`
	Difficulty   domain.Difficulty  `json:"difficulty,omitempty"`
	Participants [2]ParticipantView `json:"participants"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	Deadline     *time.Time         `json:"deadline,omitempty"`
	Outcome      *Outcome           `json:"outcome,omitempty"`
}

func (s *Session) View() View {
	v := View{
		MatchID:     s.ID,
		State:       s.State,
		ChallengeID: s.ChallengeID,
		Difficulty:  s.Difficulty,
	}
	for i, p := range s.Players {
		v.Participants[i] = ParticipantView{
			PlayerID:  p.PlayerID,
			Profile:   p.Profile,
			Progress:  p.Progress,
			Completed: p.Completed,
		}
	}
	if !s.StartedAt.IsZero() {
		started, deadline := s.StartedAt, s.Deadline
		v.StartedAt = &started
		v.Deadline = &deadline
	}
	if s.Outcome != nil {
		o := *s.Outcome
		v.Outcome = &o
	}
	return v
}

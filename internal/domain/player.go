package domain

// Публичный профиль игрока, его видит соперник
type Profile struct {
	Name   string `db:"display_name" json:"name"`
	Rank   string `db:"rank" json:"rank"`
	Avatar string `db:"avatar_url" json:"avatar"`
}

// Merge заполняет пустые поля из fallback
func (p Profile) Merge(fallback Profile) Profile {
	if p.Name == "" {
		p.Name = fallback.Name
	}
	if p.Rank == "" {
		p.Rank = fallback.Rank
	}
	if p.Avatar == "" {
		p.Avatar = fallback.Avatar
	}
	return p
}

// Заявка игрока в очереди матчмейкинга
type Ticket struct {
	ConnID     string     `json:"-"` // никогда не уходит сопернику
	PlayerID   string     `json:"player_id"`
	Profile    Profile    `json:"profile"`
	Difficulty Difficulty `json:"requested_difficulty,omitempty"` // при подборе не учитывается
}

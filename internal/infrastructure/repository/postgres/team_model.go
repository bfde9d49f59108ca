package postgres

import (
	"github.com/WarenOdhiambo1/oddsengine/internal/domain/team"
)

type teamTableModel struct {
	ID              string  `db:"id"`
	Name            string  `db:"name"`
	AttackStrength  float64 `db:"attack_strength"`
	DefenseStrength float64 `db:"defense_strength"`
	EloRating       float64 `db:"elo_rating"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:              m.ID,
		Name:            m.Name,
		AttackStrength:  m.AttackStrength,
		DefenseStrength: m.DefenseStrength,
		EloRating:       m.EloRating,
	}
}

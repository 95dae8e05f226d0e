package game

import (
	"errors"
	"math/rand"
)

// Role is a player's secret role for one game.
type Role string

const (
	RoleMafia     Role = "mafia"
	RoleDetective Role = "detective"
	RoleDoctor    Role = "doctor"
	RoleVillager  Role = "villager"
)

// Alignment groups roles into the two win-condition camps.
type Alignment string

const (
	AlignmentEvil Alignment = "evil"
	AlignmentGood Alignment = "good"
)

// Alignment returns the camp the role scores with. Only the win check uses it.
func (r Role) Alignment() Alignment {
	if r == RoleMafia {
		return AlignmentEvil
	}
	return AlignmentGood
}

// MinPlayers is the smallest roster that gets a full role distribution.
const MinPlayers = 4

// ErrRosterTooSmall is returned by AssignRoles when the roster has fewer than
// MinPlayers players.
var ErrRosterTooSmall = errors.New("need at least 4 players to assign roles")

// RoleCounts is the number of each special role for a roster size; the
// remainder of the roster is padded with villagers.
type RoleCounts struct {
	Mafia     int
	Detective int
	Doctor    int
}

// CountsForRoster returns the recommended role distribution by player count:
// 4–8: 1/1/1, 9–11: 2/2/1, 12–16: 3/2/1, 17+: 4/3/1.
func CountsForRoster(playerCount int) RoleCounts {
	switch {
	case playerCount <= 8:
		return RoleCounts{Mafia: 1, Detective: 1, Doctor: 1}
	case playerCount <= 11:
		return RoleCounts{Mafia: 2, Detective: 2, Doctor: 1}
	case playerCount <= 16:
		return RoleCounts{Mafia: 3, Detective: 2, Doctor: 1}
	default:
		return RoleCounts{Mafia: 4, Detective: 3, Doctor: 1}
	}
}

// AssignRoles assigns a random role distribution to the given players in
// place. Any previous roles are reset first. The assignment is a uniform
// random permutation, so join order carries no positional bias.
func AssignRoles(players []*Player, rng *rand.Rand) error {
	if len(players) < MinPlayers {
		return ErrRosterTooSmall
	}

	for _, p := range players {
		p.Role = ""
	}

	counts := CountsForRoster(len(players))
	roles := make([]Role, 0, len(players))
	for i := 0; i < counts.Mafia; i++ {
		roles = append(roles, RoleMafia)
	}
	for i := 0; i < counts.Detective; i++ {
		roles = append(roles, RoleDetective)
	}
	for i := 0; i < counts.Doctor; i++ {
		roles = append(roles, RoleDoctor)
	}
	for len(roles) < len(players) {
		roles = append(roles, RoleVillager)
	}

	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	for i, p := range players {
		p.Role = roles[i]
	}
	return nil
}

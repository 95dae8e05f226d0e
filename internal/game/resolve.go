package game

// NightActions is one night's collected final targets. Empty string means the
// corresponding role acted on no one (skipped, timed out, or no holder alive).
type NightActions struct {
	MafiaTarget     string
	DetectiveTarget string
	DoctorTarget    string
}

// NightSummary is the outcome of resolving one night. Deaths holds player
// names; an empty slice means nobody died (the "No one died" display string is
// derived at the broadcast boundary, not stored here).
type NightSummary struct {
	Deaths                     []string          `json:"deaths"`
	ProtectedName              string            `json:"protected_name,omitempty"`
	ProtectedFromMafiaKill     bool              `json:"protected_from_mafia_kill"`
	ProtectedFromDetectiveShot bool              `json:"protected_from_detective_shot"`
	Investigations             map[string]string `json:"investigations,omitempty"`
	DetectiveMissed            bool              `json:"detective_missed"`
}

// NoOneDied is the display sentinel callers may show when Deaths is empty.
const NoOneDied = "No one died"

// ResolveNightActions resolves the night's targets against the roster and
// applies deaths by flipping the victims' Alive flags (this mutation is the
// authoritative death application; there is no separate apply step).
//
// Precedence: the mafia kill is evaluated first, then the detective shot.
// Both kill attempts are checked independently against the same doctor
// target; the branches are not assumed to be mutually exclusive. A detective
// shot at a non-mafia player misses without leaking the target's alignment.
func ResolveNightActions(players map[string]*Player, actions NightActions) NightSummary {
	summary := NightSummary{Deaths: []string{}}
	if len(players) == 0 {
		return summary
	}

	isAlive := func(id string) bool {
		p, ok := players[id]
		return ok && p.Alive
	}

	if actions.MafiaTarget != "" && isAlive(actions.MafiaTarget) {
		victim := players[actions.MafiaTarget]
		if actions.MafiaTarget == actions.DoctorTarget {
			summary.ProtectedFromMafiaKill = true
			summary.ProtectedName = victim.Name
		} else {
			victim.Alive = false
			summary.Deaths = append(summary.Deaths, victim.Name)
		}
	}

	if actions.DetectiveTarget != "" && isAlive(actions.DetectiveTarget) {
		target := players[actions.DetectiveTarget]
		if target.Role == RoleMafia {
			if actions.DetectiveTarget == actions.DoctorTarget {
				summary.ProtectedFromDetectiveShot = true
				if summary.ProtectedName == "" {
					summary.ProtectedName = target.Name
				}
			} else {
				target.Alive = false
				summary.Deaths = append(summary.Deaths, target.Name)
			}
		} else {
			summary.DetectiveMissed = true
		}
	}

	return summary
}

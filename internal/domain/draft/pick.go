package draft

// TurnAt maps a 0-based pick index to the team on the clock. Snake order
// repeats the 4-cycle [team1, team2, team2, team1] so first-pick advantage
// alternates every two picks.
func TurnAt(k int, snake bool) Team {
	if snake {
		if ((k+1)/2)%2 == 0 {
			return Team1
		}
		return Team2
	}
	if k%2 == 0 {
		return Team1
	}
	return Team2
}

// PicksMade counts picks applied so far, captains excluded.
func (d *Draft) PicksMade() int {
	return len(d.Team1) + len(d.Team2)
}

// PicksComplete reports whether every pool player has been drafted.
// Exactly len(Players)-2 picks finalize the teams.
func (d *Draft) PicksComplete() bool {
	return d.PicksMade() >= len(d.Players)-2
}

// Pick applies one captain pick and advances the turn. The caller decides
// what finalization means; this only flips the phase when the pool empties.
func (d *Draft) Pick(actorID, targetID string) error {
	if d.Phase != PhaseCaptainPick {
		return ErrWrongPhase
	}
	if actorID != d.Captain(d.PickTurn) {
		return ErrWrongTurn
	}

	found := false
	for i, id := range d.Available {
		if id == targetID {
			d.Available = append(d.Available[:i], d.Available[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return ErrNotAvailable
	}

	if d.PickTurn == Team2 {
		d.Team2 = append(d.Team2, targetID)
	} else {
		d.Team1 = append(d.Team1, targetID)
	}

	if d.PicksComplete() {
		d.Phase = PhaseTeamsFinalized
		return nil
	}

	d.PickTurn = TurnAt(d.PicksMade(), d.Snake)
	return nil
}

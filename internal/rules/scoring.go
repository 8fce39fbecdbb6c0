package rules

import "github.com/coinchelab/coinched/internal/deck"

// TricksPerRound is the number of tricks in a coinche round.
const TricksPerRound = 8

// DixDeDer is the bonus for winning the last trick of a round.
const DixDeDer = 10

// BelotePoints is the bonus for one seat playing both the king and
// queen of trump during a round.
const BelotePoints = 20

// Capot totals replace a team's card points when it takes every trick.
const (
	CapotDeclarer = 250
	CapotDefender = 500
)

// TrickRecord is a finalized trick with its winner and point value.
type TrickRecord struct {
	Plays  []Play `json:"plays"`
	Winner int    `json:"winner"`
	Points int    `json:"points"`
}

// RoundResult is the outcome of scoring a completed round.
type RoundResult struct {
	CardPoints [2]int `json:"cardPoints"` // trick points incl. dix-de-der
	Belote     [2]int `json:"belote"`
	Capot      bool   `json:"capot"`
	CapotTeam  Team   `json:"capotTeam"`
	Fulfilled  bool   `json:"fulfilled"`
	Awarded    [2]int `json:"awarded"` // final per-team scores after multiplier and rounding
}

// ScoreRound settles a completed round of eight tricks against the
// contract. The sequence is fixed: card points and dix-de-der, then
// Belote/Rebelote, then capot reassignment, then the fulfilment check,
// then the coinche multiplier, then rounding to the nearest ten.
func ScoreRound(c Contract, tricks []TrickRecord) RoundResult {
	var res RoundResult

	for _, t := range tricks {
		res.CardPoints[TeamOf(t.Winner)] += t.Points
	}
	totalCardPoints := res.CardPoints[TeamA] + res.CardPoints[TeamB]

	lastWinner := TeamOf(tricks[len(tricks)-1].Winner)
	res.CardPoints[lastWinner] += DixDeDer

	res.Belote = beloteBonuses(c.Kind, tricks)

	totals := [2]int{
		res.CardPoints[TeamA] + res.Belote[TeamA],
		res.CardPoints[TeamB] + res.Belote[TeamB],
	}

	if capotTeam, ok := capot(tricks); ok {
		res.Capot = true
		res.CapotTeam = capotTeam
		if capotTeam == c.Team {
			res.Fulfilled = true
			totals[capotTeam] = CapotDeclarer
		} else {
			totals[capotTeam] = CapotDefender
		}
		totals[capotTeam.Other()] = 0
		// Belote survives the capot reassignment for whichever team
		// earned it, before multipliers and rounding
		totals[TeamA] += res.Belote[TeamA]
		totals[TeamB] += res.Belote[TeamB]
	} else {
		res.Fulfilled = totals[c.Team] >= c.Value
		if !res.Fulfilled {
			// Ruleset coinche-v1: defenders take 160 plus every card
			// point in the round; a defender Belote survives, the
			// declarer's does not.
			totals[c.Team] = 0
			totals[c.Team.Other()] = 160 + totalCardPoints + DixDeDer + res.Belote[c.Team.Other()]
		}
	}

	mult := c.Multiplier()
	res.Awarded[TeamA] = RoundToTen(totals[TeamA] * mult)
	res.Awarded[TeamB] = RoundToTen(totals[TeamB] * mult)
	return res
}

// beloteBonuses finds every seat that played both the king and queen of
// a trump suit and credits its team. Under all-trump each suit counts;
// under no-trump there is no trump to hold.
func beloteBonuses(k Kind, tricks []TrickRecord) [2]int {
	var bonuses [2]int
	if k == KindNoTrump {
		return bonuses
	}

	type key struct {
		seat int
		suit deck.Suit
	}
	kings := map[key]bool{}
	queens := map[key]bool{}
	for _, t := range tricks {
		for _, p := range t.Plays {
			if !k.IsTrump(p.Card.Suit) {
				continue
			}
			switch p.Card.Rank {
			case deck.King:
				kings[key{p.Seat, p.Card.Suit}] = true
			case deck.Queen:
				queens[key{p.Seat, p.Card.Suit}] = true
			}
		}
	}
	for kq := range kings {
		if queens[kq] {
			bonuses[TeamOf(kq.seat)] += BelotePoints
		}
	}
	return bonuses
}

// capot reports whether a single team won all eight tricks.
func capot(tricks []TrickRecord) (Team, bool) {
	team := TeamOf(tricks[0].Winner)
	for _, t := range tricks[1:] {
		if TeamOf(t.Winner) != team {
			return 0, false
		}
	}
	return team, true
}

// RoundToTen rounds to the nearest multiple of ten, halves up.
func RoundToTen(n int) int {
	return (n + 5) / 10 * 10
}

// GameOver reports whether the cumulative scores end the game. A team
// wins by reaching the target with a strictly higher score; equal
// scores keep the game running.
func GameOver(scores [2]int, target int) (Team, bool) {
	switch {
	case scores[TeamA] >= target && scores[TeamA] > scores[TeamB]:
		return TeamA, true
	case scores[TeamB] >= target && scores[TeamB] > scores[TeamA]:
		return TeamB, true
	default:
		return 0, false
	}
}

package domain

import "github.com/tokenarena/poker/cards"

// Player is a seat occupant. Chips is the session stack: the buy-in amount
// debited from the external ledger at join time and credited back at leave
// time. It is distinct from the player's durable ledger balance.
type Player struct {
	ID        string
	Name      string
	Chips     int
	ConnID    string // routing handle for private delivery of hole cards
	HoleCards cards.Cards
	Bet       int // wager in the current betting round
	TotalBet  int // total wager in the current hand
	Folded    bool
	HasActed  bool // acted since the last raise in this betting round
	SeatIndex int
}

// InHand reports whether the player was dealt into the current hand and has
// not folded. Players seated mid-hand wait for the next one.
func (p *Player) InHand() bool {
	return len(p.HoleCards) == 2 && !p.Folded
}

// CanAct reports whether the player can still take betting actions.
func (p *Player) CanAct() bool {
	return p.InHand() && p.Chips > 0
}

// ResetForHand clears the player's per-hand state.
func (p *Player) ResetForHand() {
	p.HoleCards = nil
	p.Bet = 0
	p.TotalBet = 0
	p.Folded = false
	p.HasActed = false
}

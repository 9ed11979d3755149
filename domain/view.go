package domain

import (
	"github.com/tokenarena/poker/cards"
)

// SeatView is one seat as shown to every subscriber. Hole cards are included
// only after a river showdown and only for seats that did not fold; a hand
// won by everyone else folding reveals nothing.
type SeatView struct {
	SeatIndex int         `json:"seatIndex"`
	PlayerID  string      `json:"playerId"`
	Name      string      `json:"name"`
	Chips     int         `json:"chips"`
	Bet       int         `json:"bet"`
	Folded    bool        `json:"folded"`
	HasCards  bool        `json:"hasCards"`
	IsTurn    bool        `json:"isTurn"`
	HoleCards cards.Cards `json:"holeCards,omitempty"`
}

// PublicView is the full table state with all hidden information stripped.
// It is safe to send to any subscriber.
type PublicView struct {
	TableID        string      `json:"tableId"`
	Private        bool        `json:"private"`
	OwnerID        string      `json:"ownerId,omitempty"`
	Phase          Phase       `json:"phase"`
	Pot            int         `json:"pot"`
	CurrentBet     int         `json:"currentBet"`
	CommunityCards cards.Cards `json:"communityCards"`
	DealerSeat     int         `json:"dealerSeat"`
	CurrentTurn    string      `json:"currentTurn,omitempty"`
	Seats          []SeatView  `json:"seats"`
	LastAction     *LastAction `json:"lastAction,omitempty"`
	Winners        []Winner    `json:"winners,omitempty"`
}

// PrivateView is one seat's hole cards, delivered only to that seat's
// connection.
type PrivateView struct {
	TableID   string      `json:"tableId"`
	HoleCards cards.Cards `json:"holeCards"`
}

// PublicView projects the current table state for broadcast.
func (t *Table) PublicView() PublicView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.publicViewLocked()
}

func (t *Table) publicViewLocked() PublicView {
	view := PublicView{
		TableID:        t.ID,
		Private:        t.Private,
		OwnerID:        t.OwnerID,
		Phase:          t.phase,
		Pot:            t.pot,
		CurrentBet:     t.currentBet,
		CommunityCards: append(cards.Cards{}, t.communityCards...),
		DealerSeat:     -1,
		LastAction:     t.lastAction,
		Seats:          make([]SeatView, 0, len(t.players)),
	}

	if len(t.winners) > 0 {
		view.Winners = append([]Winner{}, t.winners...)
	}
	if t.dealerIndex < len(t.players) {
		view.DealerSeat = t.players[t.dealerIndex].SeatIndex
	}
	if t.phase.IsBetting() && t.turnIndex < len(t.players) {
		view.CurrentTurn = t.players[t.turnIndex].ID
	}

	for i, p := range t.players {
		seat := SeatView{
			SeatIndex: p.SeatIndex,
			PlayerID:  p.ID,
			Name:      p.Name,
			Chips:     p.Chips,
			Bet:       p.Bet,
			Folded:    p.Folded,
			HasCards:  len(p.HoleCards) == 2,
			IsTurn:    t.phase.IsBetting() && i == t.turnIndex,
		}
		if t.revealed && p.InHand() {
			seat.HoleCards = append(cards.Cards{}, p.HoleCards...)
		}
		view.Seats = append(view.Seats, seat)
	}

	return view
}

// PrivateViewFor projects the hole cards of one seated player.
func (t *Table) PrivateViewFor(playerID string) (PrivateView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	player := t.findLocked(playerID)
	if player == nil {
		return PrivateView{}, ErrPlayerNotSeated
	}

	return PrivateView{
		TableID:   t.ID,
		HoleCards: append(cards.Cards{}, player.HoleCards...),
	}, nil
}

// ConnIDFor returns the routing handle of a seated player's connection.
func (t *Table) ConnIDFor(playerID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	player := t.findLocked(playerID)
	if player == nil {
		return "", false
	}
	return player.ConnID, true
}

// CurrentPhase returns the table's current phase.
func (t *Table) CurrentPhase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// PotSize returns the chips currently in the pot.
func (t *Table) PotSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pot
}

// SeatedCount returns the number of occupied seats.
func (t *Table) SeatedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players)
}

// HasPlayer reports whether the identity is seated at this table.
func (t *Table) HasPlayer(playerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.findLocked(playerID) != nil
}

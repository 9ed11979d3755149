package events

import (
	"time"

	"github.com/tokenarena/poker/cards"
)

type EventHandler func(event Event)

type Event interface {
	Name() string
}

// PlayerJoinedTable fires when a seat is taken or a seated player reconnects.
type PlayerJoinedTable struct {
	TableID  string
	PlayerID string
	Rejoined bool
	At       time.Time
}

func (p PlayerJoinedTable) Name() string { return "PLAYER_JOINED_TABLE" }

// PlayerLeftTable fires after a seat is vacated and the stack refunded.
type PlayerLeftTable struct {
	TableID  string
	PlayerID string
	Refund   int
	At       time.Time
}

func (p PlayerLeftTable) Name() string { return "PLAYER_LEFT_TABLE" }

type HandStarted struct {
	TableID string
	HandID  string
	Players []string
	At      time.Time
}

func (h HandStarted) Name() string { return "HAND_STARTED" }

// HoleCardsDealt is addressed to a single player and must never be broadcast.
type HoleCardsDealt struct {
	TableID   string
	HandID    string
	PlayerID  string
	HoleCards cards.Cards
	At        time.Time
}

func (h HoleCardsDealt) Name() string { return "HOLE_CARDS_DEALT" }

type HandEnded struct {
	TableID  string
	HandID   string
	FinalPot int
	Winners  []string
	At       time.Time
}

func (h HandEnded) Name() string { return "HAND_ENDED" }

// TableStateChanged signals that the table's public view must be re-broadcast.
// Consumers derive the view from the authoritative table, not from the event.
type TableStateChanged struct {
	TableID string
	At      time.Time
}

func (t TableStateChanged) Name() string { return "TABLE_STATE_CHANGED" }

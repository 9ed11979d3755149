package domain

import "errors"

// Engine errors are recoverable and local: they reject exactly the offending
// action, leave table state untouched, and are reported only to the
// originating connection.
var (
	ErrTableNotFound      = errors.New("table not found")
	ErrTableFull          = errors.New("table is full")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrIllegalAction      = errors.New("illegal action")
	ErrNotOwner           = errors.New("only the table owner can start the game")
	ErrInvalidRaiseAmount = errors.New("raise must be greater than the current bet")
	ErrNotEnoughPlayers   = errors.New("need at least 2 players to start")
	ErrHandInProgress     = errors.New("a hand is already in progress")
	ErrPlayerNotSeated    = errors.New("player is not seated at this table")
)

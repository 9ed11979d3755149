package domain

import "sync"

// Ledger is the external store of durable token balances. Buy-ins are debited
// before a seat is taken and session stacks are credited back on leave.
// Implementations must be atomic with respect to concurrent requests for the
// same identity.
type Ledger interface {
	Debit(playerID string, amount int) error
	Credit(playerID string, amount int) error
}

// MemoryLedger is an in-process Ledger. Identities seen for the first time
// start with the configured opening balance.
type MemoryLedger struct {
	mu             sync.Mutex
	openingBalance int
	balances       map[string]int
}

func NewMemoryLedger(openingBalance int) *MemoryLedger {
	return &MemoryLedger{
		openingBalance: openingBalance,
		balances:       make(map[string]int),
	}
}

func (l *MemoryLedger) Debit(playerID string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(playerID)
	if balance < amount {
		return ErrInsufficientFunds
	}

	l.balances[playerID] = balance - amount
	return nil
}

func (l *MemoryLedger) Credit(playerID string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[playerID] = l.balanceLocked(playerID) + amount
	return nil
}

// Balance returns the current durable balance for a player.
func (l *MemoryLedger) Balance(playerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(playerID)
}

// Deposit adds funds to a player's durable balance.
func (l *MemoryLedger) Deposit(playerID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[playerID] = l.balanceLocked(playerID) + amount
}

func (l *MemoryLedger) balanceLocked(playerID string) int {
	if balance, seen := l.balances[playerID]; seen {
		return balance
	}
	return l.openingBalance
}

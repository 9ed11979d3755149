package domain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenarena/poker/cards"
	"github.com/tokenarena/poker/domain/events"
	"github.com/tokenarena/poker/domain/hands"
)

// Phase is the table's position in the hand lifecycle.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// IsBetting reports whether players act during this phase.
func (p Phase) IsBetting() bool {
	switch p {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// ActionType is a player's betting-round action.
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
)

// TableRules defines the rules for a poker table.
type TableRules struct {
	SmallBlind    int
	BigBlind      int
	MaxPlayers    int
	TurnTimeout   time.Duration // 0 disables auto-acting when a player stalls
	ShowdownPause time.Duration // display pause before the next hand; 0 waits for an explicit start
	StartDelay    time.Duration // public-table autostart delay once 2 players are seated; 0 disables
}

// DefaultRules returns the standard cash-table rules.
func DefaultRules() TableRules {
	return TableRules{
		SmallBlind:    10,
		BigBlind:      20,
		MaxPlayers:    6,
		ShowdownPause: 5 * time.Second,
		StartDelay:    2 * time.Second,
	}
}

// LastAction records the most recent action for display purposes.
type LastAction struct {
	PlayerID string `json:"playerId"`
	Type     string `json:"type"`
	Amount   int    `json:"amount"`
}

// Winner records a pot award at the end of a hand.
type Winner struct {
	PlayerID        string `json:"playerId"`
	Amount          int    `json:"amount"`
	HandDescription string `json:"handDescription"`
}

// Table is a single poker table. All mutations to one table are strictly
// ordered behind its mutex; different tables share no mutable state and run
// fully in parallel.
type Table struct {
	ID      string
	Private bool
	OwnerID string
	Rules   TableRules

	mu             sync.Mutex
	players        []*Player // ordered by seat index
	deck           *cards.Deck
	communityCards cards.Cards
	pot            int
	currentBet     int
	dealerIndex    int
	turnIndex      int
	phase          Phase
	lastAction     *LastAction
	winners        []Winner
	revealed       bool // live hands shown, true only after a river showdown
	handID         string

	// handSeq and turnSeq invalidate delayed callbacks scheduled for hands
	// and turns that have since ended.
	handSeq   uint64
	turnSeq   uint64
	turnTimer *time.Timer
	handTimer *time.Timer

	pending       []events.Event
	eventHandlers []events.EventHandler

	logger *zap.Logger
}

// NewTable creates a table in the waiting state.
func NewTable(id string, private bool, ownerID string, rules TableRules, logger *zap.Logger) *Table {
	if rules.MaxPlayers <= 0 {
		rules.MaxPlayers = DefaultRules().MaxPlayers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Table{
		ID:      id,
		Private: private,
		OwnerID: ownerID,
		Rules:   rules,
		phase:   PhaseWaiting,
		logger:  logger.With(zap.String("tableID", id)),
	}
}

// RegisterEventHandler registers a callback invoked for every domain event.
// Handlers must be registered before the table is in use.
func (t *Table) RegisterEventHandler(handler events.EventHandler) {
	t.eventHandlers = append(t.eventHandlers, handler)
}

// Join seats a new player, debiting the buy-in from the ledger first, or
// reassociates the connection handle when the identity is already seated.
// Rejoining never re-debits the ledger and never duplicates the seat.
func (t *Table) Join(playerID, name, connID string, buyIn int, ledger Ledger) (*Player, error) {
	t.mu.Lock()
	defer t.unlockAndNotify()
	return t.joinLocked(playerID, name, connID, buyIn, ledger)
}

// Leave vacates a player's seat. Mid-hand departures are folded first, then
// the remaining session stack is credited back to the ledger exactly once.
// A transport-level disconnect takes this exact path too.
func (t *Table) Leave(playerID string, ledger Ledger) error {
	t.mu.Lock()
	defer t.unlockAndNotify()
	return t.leaveLocked(playerID, ledger)
}

// StartHand begins a new hand. On private tables only the owner may start.
func (t *Table) StartHand(requesterID string) error {
	t.mu.Lock()
	defer t.unlockAndNotify()

	if t.phase != PhaseWaiting && t.phase != PhaseShowdown {
		return ErrHandInProgress
	}
	if t.findLocked(requesterID) == nil {
		return ErrPlayerNotSeated
	}
	if t.Private && requesterID != t.OwnerID {
		return ErrNotOwner
	}

	if err := t.startHandLocked(); err != nil {
		return err
	}
	t.emitStateLocked()
	return nil
}

// HandleAction applies a betting action for the acting player. Illegal or
// out-of-turn actions are rejected with a typed error and no state change.
func (t *Table) HandleAction(playerID string, action ActionType, amount int) error {
	t.mu.Lock()
	defer t.unlockAndNotify()

	if !t.phase.IsBetting() {
		return ErrIllegalAction
	}

	player := t.findLocked(playerID)
	if player == nil {
		return ErrPlayerNotSeated
	}
	if t.turnIndex >= len(t.players) || t.players[t.turnIndex] != player {
		return ErrNotYourTurn
	}
	if !player.CanAct() {
		return ErrIllegalAction
	}

	if err := t.applyActionLocked(player, action, amount); err != nil {
		return err
	}
	t.emitStateLocked()
	return nil
}

// --- locked internals -------------------------------------------------------

func (t *Table) joinLocked(playerID, name, connID string, buyIn int, ledger Ledger) (*Player, error) {
	// Reconnect: same identity keeps its seat, only the routing handle moves.
	for _, p := range t.players {
		if p.ID == playerID {
			p.ConnID = connID
			t.emitLocked(events.PlayerJoinedTable{TableID: t.ID, PlayerID: p.ID, Rejoined: true, At: time.Now()})
			if len(p.HoleCards) == 2 {
				t.emitLocked(events.HoleCardsDealt{
					TableID:   t.ID,
					HandID:    t.handID,
					PlayerID:  p.ID,
					HoleCards: append(cards.Cards{}, p.HoleCards...),
					At:        time.Now(),
				})
			}
			t.emitStateLocked()
			return p, nil
		}
	}

	if len(t.players) >= t.Rules.MaxPlayers {
		return nil, ErrTableFull
	}
	if buyIn <= 0 {
		return nil, fmt.Errorf("%w: buy-in must be positive", ErrIllegalAction)
	}

	// The debit must complete before seating mutates; a failed debit leaves
	// the table untouched.
	if err := ledger.Debit(playerID, buyIn); err != nil {
		return nil, err
	}

	player := &Player{
		ID:        playerID,
		Name:      name,
		Chips:     buyIn,
		ConnID:    connID,
		SeatIndex: t.nextFreeSeatLocked(),
	}

	at := sort.Search(len(t.players), func(i int) bool {
		return t.players[i].SeatIndex > player.SeatIndex
	})
	t.players = append(t.players, nil)
	copy(t.players[at+1:], t.players[at:])
	t.players[at] = player

	// Keep the dealer and turn pointers on the same players when a seat is
	// filled mid-hand.
	if t.phase != PhaseWaiting {
		if at <= t.dealerIndex {
			t.dealerIndex++
		}
		if at <= t.turnIndex {
			t.turnIndex++
		}
	}

	t.emitLocked(events.PlayerJoinedTable{TableID: t.ID, PlayerID: player.ID, At: time.Now()})
	t.emitStateLocked()

	if !t.Private && t.phase == PhaseWaiting && t.Rules.StartDelay > 0 && len(t.eligibleLocked()) >= 2 {
		t.scheduleAutoStartLocked()
	}

	return player, nil
}

func (t *Table) leaveLocked(playerID string, ledger Ledger) error {
	idx := -1
	for i, p := range t.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrPlayerNotSeated
	}

	player := t.players[idx]

	// An involuntary departure mid-hand is a fold.
	if t.phase.IsBetting() && player.InHand() {
		t.foldLocked(player)
	}

	t.players = append(t.players[:idx], t.players[idx+1:]...)
	if idx < t.dealerIndex {
		t.dealerIndex--
	} else if t.dealerIndex >= len(t.players) {
		t.dealerIndex = 0
	}
	if idx < t.turnIndex {
		t.turnIndex--
	} else if t.turnIndex >= len(t.players) {
		t.turnIndex = 0
	}

	refund := player.Chips
	player.Chips = 0
	if refund > 0 {
		if err := ledger.Credit(player.ID, refund); err != nil {
			// A dropped refund destroys chips; surface it for retry.
			t.logger.Error("failed to refund session stack",
				zap.String("playerID", player.ID),
				zap.Int("amount", refund),
				zap.Error(err))
		}
	}

	t.emitLocked(events.PlayerLeftTable{TableID: t.ID, PlayerID: player.ID, Refund: refund, At: time.Now()})

	if len(t.players) < 2 && t.phase != PhaseWaiting {
		t.resetHandLocked()
		t.phase = PhaseWaiting
	}

	t.emitStateLocked()
	return nil
}

func (t *Table) startHandLocked() error {
	eligible := t.eligibleLocked()
	if len(eligible) < 2 {
		return ErrNotEnoughPlayers
	}

	t.resetHandLocked()
	t.handID = uuid.NewString()
	t.phase = PhasePreflop

	// The button moves one eligible seat forward; the two seats after it
	// post the blinds. Short stacks post an all-in blind for what they have.
	t.dealerIndex = t.nextEligibleAfterLocked(t.dealerIndex)
	smallBlindIdx := t.nextEligibleAfterLocked(t.dealerIndex)
	bigBlindIdx := t.nextEligibleAfterLocked(smallBlindIdx)

	t.placeBetLocked(t.players[smallBlindIdx], t.Rules.SmallBlind)
	t.placeBetLocked(t.players[bigBlindIdx], t.Rules.BigBlind)
	t.currentBet = t.Rules.BigBlind

	playerIDs := make([]string, 0, len(eligible))
	for _, p := range eligible {
		dealt, err := t.deck.Deal(2)
		if err != nil {
			return fmt.Errorf("dealing hole cards: %w", err)
		}
		p.HoleCards = dealt
		playerIDs = append(playerIDs, p.ID)
	}

	t.emitLocked(events.HandStarted{TableID: t.ID, HandID: t.handID, Players: playerIDs, At: time.Now()})
	for _, p := range eligible {
		t.emitLocked(events.HoleCardsDealt{
			TableID:   t.ID,
			HandID:    t.handID,
			PlayerID:  p.ID,
			HoleCards: append(cards.Cards{}, p.HoleCards...),
			At:        time.Now(),
		})
	}

	t.turnIndex = t.nextActorAfterLocked(bigBlindIdx)
	if t.roundCompleteLocked() {
		// Blinds put everyone all-in; run the board out.
		t.advancePhasesLocked()
	} else {
		t.armTurnTimerLocked()
	}

	return nil
}

func (t *Table) applyActionLocked(player *Player, action ActionType, amount int) error {
	switch action {
	case ActionFold:
		t.lastAction = &LastAction{PlayerID: player.ID, Type: string(action)}
		t.foldLocked(player)
		return nil

	case ActionCheck:
		if player.Bet != t.currentBet {
			return fmt.Errorf("%w: cannot check, a call is owed", ErrIllegalAction)
		}

	case ActionCall:
		t.placeBetLocked(player, t.currentBet-player.Bet)

	case ActionRaise:
		if amount <= t.currentBet {
			return ErrInvalidRaiseAmount
		}
		if amount > player.Chips+player.Bet {
			return ErrInsufficientFunds
		}
		t.placeBetLocked(player, amount-player.Bet)
		t.currentBet = amount
		// A raise reopens the action for everyone else.
		for _, other := range t.players {
			if other != player {
				other.HasActed = false
			}
		}

	default:
		return fmt.Errorf("%w: unknown action %q", ErrIllegalAction, action)
	}

	player.HasActed = true
	t.lastAction = &LastAction{PlayerID: player.ID, Type: string(action), Amount: amount}

	if t.roundCompleteLocked() {
		t.advancePhasesLocked()
	} else {
		t.advanceTurnLocked()
	}
	return nil
}

// foldLocked marks a player folded and resolves the consequences: the hand
// ends immediately when one player remains, otherwise play moves on.
func (t *Table) foldLocked(player *Player) {
	player.Folded = true
	player.HasActed = true

	if t.countInHandLocked() == 1 {
		t.endByFoldLocked()
		return
	}

	wasCurrent := t.turnIndex < len(t.players) && t.players[t.turnIndex] == player
	if t.roundCompleteLocked() {
		t.advancePhasesLocked()
	} else if wasCurrent {
		t.advanceTurnLocked()
	}
}

// placeBetLocked moves chips into the pot, going all-in when the stack is
// short. It never raises currentBet; raisers do that explicitly.
func (t *Table) placeBetLocked(player *Player, amount int) {
	if amount > player.Chips {
		amount = player.Chips
	}
	player.Chips -= amount
	player.Bet += amount
	player.TotalBet += amount
	t.pot += amount
}

// roundCompleteLocked reports whether the betting round is finished: every
// player who can still act has acted since the last raise and matched the
// current bet. Checking wager equality alone would skip the big blind's
// preflop option and cut check-around rounds short.
func (t *Table) roundCompleteLocked() bool {
	for _, p := range t.players {
		if !p.CanAct() {
			continue
		}
		if !p.HasActed || p.Bet != t.currentBet {
			return false
		}
	}
	return true
}

func (t *Table) advanceTurnLocked() {
	n := len(t.players)
	for i := 1; i <= n; i++ {
		idx := (t.turnIndex + i) % n
		if t.players[idx].CanAct() {
			t.turnIndex = idx
			t.armTurnTimerLocked()
			return
		}
	}
}

// advancePhasesLocked moves to the next phase, cascading through streets
// when nobody is left with chips to bet (all-in runouts).
func (t *Table) advancePhasesLocked() {
	for {
		t.advancePhaseLocked()
		if !t.phase.IsBetting() {
			return
		}
		if !t.roundCompleteLocked() {
			t.armTurnTimerLocked()
			return
		}
	}
}

func (t *Table) advancePhaseLocked() {
	for _, p := range t.players {
		p.Bet = 0
		p.HasActed = false
	}
	t.currentBet = 0
	t.turnIndex = t.nextActorAfterLocked(t.dealerIndex)

	switch t.phase {
	case PhasePreflop:
		t.phase = PhaseFlop
		t.dealCommunityLocked(3)
	case PhaseFlop:
		t.phase = PhaseTurn
		t.dealCommunityLocked(1)
	case PhaseTurn:
		t.phase = PhaseRiver
		t.dealCommunityLocked(1)
	case PhaseRiver:
		t.settleShowdownLocked()
	}
}

func (t *Table) dealCommunityLocked(n int) {
	if err := t.deck.Burn(); err != nil {
		t.logger.Error("burn failed", zap.Error(err))
		return
	}
	dealt, err := t.deck.Deal(n)
	if err != nil {
		t.logger.Error("community deal failed", zap.Error(err))
		return
	}
	t.communityCards = append(t.communityCards, dealt...)
}

// endByFoldLocked awards the whole pot to the last unfolded player without
// revealing cards.
func (t *Table) endByFoldLocked() {
	t.stopTurnTimerLocked()

	var winner *Player
	for _, p := range t.players {
		if p.InHand() {
			winner = p
			break
		}
	}
	if winner == nil {
		return
	}

	amount := t.pot
	winner.Chips += amount
	t.pot = 0
	t.phase = PhaseShowdown
	t.winners = []Winner{{PlayerID: winner.ID, Amount: amount, HandDescription: "opponents folded"}}

	t.emitLocked(events.HandEnded{
		TableID:  t.ID,
		HandID:   t.handID,
		FinalPot: amount,
		Winners:  []string{winner.ID},
		At:       time.Now(),
	})
	t.scheduleNextHandLocked()
}

// settleShowdownLocked evaluates every unfolded hand against the board and
// splits the single main pot among the winners by floor division. Any
// remainder stays in the pot and is dropped at the next hand reset, a known
// leak of the single-pot model. A side-pot aware settlement would replace
// this function wholesale.
func (t *Table) settleShowdownLocked() {
	t.stopTurnTimerLocked()
	t.phase = PhaseShowdown
	t.revealed = true

	evals := make(map[string]hands.Evaluation)
	for _, p := range t.players {
		if !p.InHand() {
			continue
		}
		eval, err := hands.Evaluate(p.HoleCards, t.communityCards)
		if err != nil {
			t.logger.Error("hand evaluation failed", zap.String("playerID", p.ID), zap.Error(err))
			continue
		}
		evals[p.ID] = eval
	}

	finalPot := t.pot
	winnerIDs := hands.Winners(evals)
	if len(winnerIDs) > 0 {
		share := t.pot / len(winnerIDs)
		for _, id := range winnerIDs {
			winner := t.findLocked(id)
			winner.Chips += share
			t.pot -= share
			t.winners = append(t.winners, Winner{
				PlayerID:        id,
				Amount:          share,
				HandDescription: evals[id].Description,
			})
		}
	}

	t.emitLocked(events.HandEnded{
		TableID:  t.ID,
		HandID:   t.handID,
		FinalPot: finalPot,
		Winners:  winnerIDs,
		At:       time.Now(),
	})
	t.scheduleNextHandLocked()
}

func (t *Table) resetHandLocked() {
	t.stopTurnTimerLocked()
	if t.handTimer != nil {
		t.handTimer.Stop()
		t.handTimer = nil
	}
	t.handSeq++

	for _, p := range t.players {
		p.ResetForHand()
	}
	t.deck = cards.NewShuffledDeck()
	t.communityCards = nil
	t.pot = 0
	t.currentBet = 0
	t.winners = nil
	t.lastAction = nil
	t.revealed = false
	t.handID = ""
}

// --- timers -----------------------------------------------------------------

func (t *Table) armTurnTimerLocked() {
	t.turnSeq++
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
	if t.Rules.TurnTimeout <= 0 {
		return
	}

	handSeq, turnSeq := t.handSeq, t.turnSeq
	t.turnTimer = time.AfterFunc(t.Rules.TurnTimeout, func() {
		t.onTurnTimeout(handSeq, turnSeq)
	})
}

func (t *Table) stopTurnTimerLocked() {
	t.turnSeq++
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
}

func (t *Table) onTurnTimeout(handSeq, turnSeq uint64) {
	t.mu.Lock()
	defer t.unlockAndNotify()

	if handSeq != t.handSeq || turnSeq != t.turnSeq || !t.phase.IsBetting() {
		return
	}
	if t.turnIndex >= len(t.players) {
		return
	}

	player := t.players[t.turnIndex]
	action := ActionFold
	if player.Bet == t.currentBet {
		action = ActionCheck
	}

	t.logger.Info("player timed out, acting automatically",
		zap.String("playerID", player.ID),
		zap.String("action", string(action)))

	if err := t.applyActionLocked(player, action, 0); err != nil {
		t.logger.Error("auto action failed", zap.Error(err))
		return
	}
	t.emitStateLocked()
}

func (t *Table) scheduleNextHandLocked() {
	if t.handTimer != nil {
		t.handTimer.Stop()
	}
	if t.Rules.ShowdownPause <= 0 {
		return
	}

	handSeq := t.handSeq
	t.handTimer = time.AfterFunc(t.Rules.ShowdownPause, func() {
		t.onShowdownPause(handSeq)
	})
}

func (t *Table) onShowdownPause(handSeq uint64) {
	t.mu.Lock()
	defer t.unlockAndNotify()

	if handSeq != t.handSeq || t.phase != PhaseShowdown {
		return
	}

	if len(t.eligibleLocked()) >= 2 {
		if err := t.startHandLocked(); err == nil {
			t.emitStateLocked()
			return
		}
	}

	t.resetHandLocked()
	t.phase = PhaseWaiting
	t.emitStateLocked()
}

func (t *Table) scheduleAutoStartLocked() {
	if t.handTimer != nil {
		t.handTimer.Stop()
	}
	t.handTimer = time.AfterFunc(t.Rules.StartDelay, t.onAutoStart)
}

func (t *Table) onAutoStart() {
	t.mu.Lock()
	defer t.unlockAndNotify()

	if t.phase != PhaseWaiting || len(t.eligibleLocked()) < 2 {
		return
	}
	if err := t.startHandLocked(); err != nil {
		t.logger.Error("autostart failed", zap.Error(err))
		return
	}
	t.emitStateLocked()
}

// --- helpers ----------------------------------------------------------------

func (t *Table) findLocked(playerID string) *Player {
	for _, p := range t.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (t *Table) nextFreeSeatLocked() int {
	used := make(map[int]bool, len(t.players))
	for _, p := range t.players {
		used[p.SeatIndex] = true
	}
	seat := 0
	for used[seat] {
		seat++
	}
	return seat
}

// eligibleLocked returns players with chips, i.e. those dealt into the next hand.
func (t *Table) eligibleLocked() []*Player {
	var eligible []*Player
	for _, p := range t.players {
		if p.Chips > 0 {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

func (t *Table) nextEligibleAfterLocked(idx int) int {
	n := len(t.players)
	for i := 1; i <= n; i++ {
		next := (idx + i) % n
		if t.players[next].Chips > 0 {
			return next
		}
	}
	return idx
}

func (t *Table) nextActorAfterLocked(idx int) int {
	n := len(t.players)
	for i := 1; i <= n; i++ {
		next := (idx + i) % n
		if t.players[next].CanAct() {
			return next
		}
	}
	return idx
}

func (t *Table) countInHandLocked() int {
	count := 0
	for _, p := range t.players {
		if p.InHand() {
			count++
		}
	}
	return count
}

// --- events -----------------------------------------------------------------

func (t *Table) emitLocked(event events.Event) {
	t.pending = append(t.pending, event)
}

func (t *Table) emitStateLocked() {
	t.emitLocked(events.TableStateChanged{TableID: t.ID, At: time.Now()})
}

// unlockAndNotify releases the table lock and delivers pending events.
// Handlers run outside the lock so they may call back into the table.
func (t *Table) unlockAndNotify() {
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, event := range pending {
		for _, handler := range t.eventHandlers {
			handler(event)
		}
	}
}

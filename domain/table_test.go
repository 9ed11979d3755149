package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenarena/poker/cards"
	"github.com/tokenarena/poker/domain/events"
)

// testRules disables all timers so tests drive the table synchronously.
func testRules() TableRules {
	return TableRules{SmallBlind: 10, BigBlind: 20, MaxPlayers: 6}
}

func mustCards(t *testing.T, shorthand string) cards.Cards {
	t.Helper()

	var result cards.Cards
	for _, s := range strings.Fields(shorthand) {
		card, err := cards.CardFromString(s)
		require.NoError(t, err)
		result = append(result, card)
	}
	return result
}

func seat(t *testing.T, table *Table, ledger Ledger, playerID string, buyIn int) *Player {
	t.Helper()

	player, err := table.Join(playerID, playerID, "conn-"+playerID, buyIn, ledger)
	require.NoError(t, err)
	return player
}

// totalChips sums every place a chip can live: durable balances, session
// stacks and the pot. Engine operations must keep it constant.
func totalChips(table *Table, ledger *MemoryLedger, playerIDs ...string) int {
	total := table.PotSize()
	for _, id := range playerIDs {
		total += ledger.Balance(id)
	}
	for _, s := range table.PublicView().Seats {
		total += s.Chips
	}
	return total
}

func TestJoinDebitsLedgerAndSeats(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)

	player := seat(t, table, ledger, "alice", 1000)

	assert.Equal(t, 0, ledger.Balance("alice"))
	assert.Equal(t, 1000, player.Chips)
	assert.Equal(t, 0, player.SeatIndex)
	assert.Equal(t, 1, table.SeatedCount())
}

func TestJoinInsufficientFunds(t *testing.T) {
	ledger := NewMemoryLedger(500)
	table := NewTable("t1", false, "", testRules(), nil)

	_, err := table.Join("alice", "alice", "c1", 1000, ledger)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 0, table.SeatedCount())
	assert.Equal(t, 500, ledger.Balance("alice"))
}

func TestJoinTableFull(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	rules := testRules()
	rules.MaxPlayers = 2
	table := NewTable("t1", false, "", rules, nil)

	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)

	_, err := table.Join("carol", "carol", "c3", 1000, ledger)
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestRejoinKeepsSeatAndSkipsDebit(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)

	seat(t, table, ledger, "alice", 1000)
	require.Equal(t, 0, ledger.Balance("alice"))

	rejoined, err := table.Join("alice", "alice", "conn-new", 1000, ledger)
	require.NoError(t, err)

	assert.Equal(t, 1, table.SeatedCount())
	assert.Equal(t, "conn-new", rejoined.ConnID)
	assert.Equal(t, 1000, rejoined.Chips)
	assert.Equal(t, 0, ledger.Balance("alice"), "rejoin must not debit again")
}

func TestLeaveRefundsStack(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)

	require.NoError(t, table.Leave("alice", ledger))

	assert.Equal(t, 0, table.SeatedCount())
	assert.Equal(t, 1000, ledger.Balance("alice"))
	assert.ErrorIs(t, table.Leave("alice", ledger), ErrPlayerNotSeated)
}

func TestVacatedSeatIsReused(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)

	seat(t, table, ledger, "alice", 1000)
	bob := seat(t, table, ledger, "bob", 1000)
	carol := seat(t, table, ledger, "carol", 1000)
	require.Equal(t, 1, bob.SeatIndex)
	require.Equal(t, 2, carol.SeatIndex)

	require.NoError(t, table.Leave("bob", ledger))
	dave := seat(t, table, ledger, "dave", 1000)

	assert.Equal(t, 1, dave.SeatIndex, "lowest free seat is reused")
}

func TestStartHandRequiresTwoPlayers(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)

	assert.ErrorIs(t, table.StartHand("alice"), ErrNotEnoughPlayers)
}

func TestStartHandOnlyOwnerOnPrivateTable(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("CODE42", true, "alice", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)

	assert.ErrorIs(t, table.StartHand("bob"), ErrNotOwner)
	assert.NoError(t, table.StartHand("alice"))
}

func TestStartHandPostsBlindsHeadsUp(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	alice := seat(t, table, ledger, "alice", 1000)
	bob := seat(t, table, ledger, "bob", 1000)

	require.NoError(t, table.StartHand("alice"))

	view := table.PublicView()
	assert.Equal(t, PhasePreflop, view.Phase)
	assert.Equal(t, 30, view.Pot)
	assert.Equal(t, 20, view.CurrentBet)
	// Heads-up the dealer posts the big blind and the other seat opens.
	assert.Equal(t, 1, view.DealerSeat)
	assert.Equal(t, "alice", view.CurrentTurn)
	assert.Equal(t, 10, alice.Bet)
	assert.Equal(t, 20, bob.Bet)
	assert.Len(t, alice.HoleCards, 2)
	assert.Len(t, bob.HoleCards, 2)
}

func TestStartHandWhileInProgress(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)

	require.NoError(t, table.StartHand("alice"))
	assert.ErrorIs(t, table.StartHand("alice"), ErrHandInProgress)
}

func TestActionOutOfTurn(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	assert.ErrorIs(t, table.HandleAction("bob", ActionCheck, 0), ErrNotYourTurn)
}

func TestActionFromUnseatedPlayer(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	assert.ErrorIs(t, table.HandleAction("mallory", ActionFold, 0), ErrPlayerNotSeated)
}

func TestCheckWhenCallOwed(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	err := table.HandleAction("alice", ActionCheck, 0)
	assert.ErrorIs(t, err, ErrIllegalAction)
	assert.Equal(t, "alice", table.PublicView().CurrentTurn, "rejected action must not move the turn")
}

func TestRaiseValidation(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	assert.ErrorIs(t, table.HandleAction("alice", ActionRaise, 20), ErrInvalidRaiseAmount)
	assert.ErrorIs(t, table.HandleAction("alice", ActionRaise, 5000), ErrInsufficientFunds)
	assert.Equal(t, 30, table.PotSize(), "rejected raises must not move chips")
}

func TestBigBlindOption(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	// Wagers are level after the call, but the big blind has not acted yet
	// and must get its option before the flop.
	require.NoError(t, table.HandleAction("alice", ActionCall, 0))
	view := table.PublicView()
	require.Equal(t, PhasePreflop, view.Phase)
	require.Equal(t, "bob", view.CurrentTurn)

	require.NoError(t, table.HandleAction("bob", ActionCheck, 0))
	view = table.PublicView()
	assert.Equal(t, PhaseFlop, view.Phase)
	assert.Len(t, view.CommunityCards, 3)
	assert.Equal(t, 0, view.CurrentBet)
	assert.Equal(t, "alice", view.CurrentTurn, "first active seat after the dealer opens postflop")
}

func TestRaiseReopensAction(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	seat(t, table, ledger, "carol", 1000)
	require.NoError(t, table.StartHand("alice"))

	// Dealer bob acts first; carol posted the small blind, alice the big.
	require.Equal(t, "bob", table.PublicView().CurrentTurn)
	require.NoError(t, table.HandleAction("bob", ActionCall, 0))
	require.NoError(t, table.HandleAction("carol", ActionCall, 0))

	// The big blind raises; bob and carol already matched 20 but must act again.
	require.NoError(t, table.HandleAction("alice", ActionRaise, 40))
	view := table.PublicView()
	require.Equal(t, PhasePreflop, view.Phase)
	require.Equal(t, "bob", view.CurrentTurn)

	require.NoError(t, table.HandleAction("bob", ActionCall, 0))
	require.NoError(t, table.HandleAction("carol", ActionCall, 0))

	view = table.PublicView()
	assert.Equal(t, PhaseFlop, view.Phase)
	assert.Equal(t, 120, view.Pot)
}

func TestMidHandJoinerWaitsForNextHand(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	carol := seat(t, table, ledger, "carol", 1000)

	assert.Empty(t, carol.HoleCards)
	assert.False(t, carol.InHand())
	// The running hand is undisturbed.
	view := table.PublicView()
	assert.Equal(t, PhasePreflop, view.Phase)
	assert.Equal(t, "alice", view.CurrentTurn)
}

func TestHoleCardsHiddenUntilShowdown(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	for _, s := range table.PublicView().Seats {
		assert.True(t, s.HasCards)
		assert.Empty(t, s.HoleCards, "hole cards must not leak before showdown")
	}
}

func TestJoinEmitsEvents(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)

	var received []events.Event
	table.RegisterEventHandler(func(event events.Event) {
		received = append(received, event)
	})

	seat(t, table, ledger, "alice", 1000)

	require.NotEmpty(t, received)
	joined, ok := received[0].(events.PlayerJoinedTable)
	require.True(t, ok)
	assert.Equal(t, "alice", joined.PlayerID)
	assert.False(t, joined.Rejoined)

	_, ok = received[len(received)-1].(events.TableStateChanged)
	assert.True(t, ok, "every mutation ends with a state broadcast")
}

func TestHoleCardsDealtUnicastPerPlayer(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)

	dealt := make(map[string]int)
	table.RegisterEventHandler(func(event events.Event) {
		if e, ok := event.(events.HoleCardsDealt); ok {
			dealt[e.PlayerID]++
			assert.Len(t, e.HoleCards, 2)
		}
	})

	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, dealt)
}

func TestReconnectRedealsHoleCards(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	table := NewTable("t1", false, "", testRules(), nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	var redealt *events.HoleCardsDealt
	table.RegisterEventHandler(func(event events.Event) {
		if e, ok := event.(events.HoleCardsDealt); ok {
			redealt = &e
		}
	})

	_, err := table.Join("alice", "alice", "conn-new", 1000, ledger)
	require.NoError(t, err)

	require.NotNil(t, redealt, "reconnect mid-hand must resend hole cards")
	assert.Equal(t, "alice", redealt.PlayerID)
	assert.Len(t, redealt.HoleCards, 2)
}

func TestTurnTimeoutAutoActs(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	rules := testRules()
	rules.TurnTimeout = 20 * time.Millisecond
	table := NewTable("t1", false, "", rules, nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	// Alice owes a call and times out, which folds her; bob wins the pot.
	require.Eventually(t, func() bool {
		return table.CurrentPhase() == PhaseShowdown
	}, time.Second, 5*time.Millisecond)

	view := table.PublicView()
	require.Len(t, view.Winners, 1)
	assert.Equal(t, "bob", view.Winners[0].PlayerID)
	assert.Equal(t, 2000, totalChips(table, ledger, "alice", "bob"))
}

func TestPublicTableAutoStarts(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	rules := testRules()
	rules.StartDelay = 20 * time.Millisecond
	table := NewTable("t1", false, "", rules, nil)

	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)

	require.Eventually(t, func() bool {
		return table.CurrentPhase() == PhasePreflop
	}, time.Second, 5*time.Millisecond)
}

func TestShowdownPauseStartsNextHand(t *testing.T) {
	ledger := NewMemoryLedger(1000)
	rules := testRules()
	rules.ShowdownPause = 20 * time.Millisecond
	table := NewTable("t1", false, "", rules, nil)
	seat(t, table, ledger, "alice", 1000)
	seat(t, table, ledger, "bob", 1000)
	require.NoError(t, table.StartHand("alice"))

	require.NoError(t, table.HandleAction("alice", ActionFold, 0))
	require.Equal(t, PhaseShowdown, table.CurrentPhase())

	require.Eventually(t, func() bool {
		return table.CurrentPhase() == PhasePreflop
	}, time.Second, 5*time.Millisecond)
}

package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenarena/poker/domain"
	"github.com/tokenarena/poker/server/connection"
	"github.com/tokenarena/poker/server/protocol"
)

type routerFixture struct {
	registry *domain.Registry
	connMgr  *connection.Manager
	ledger   *domain.MemoryLedger
	router   *CommandRouter
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	registry := domain.NewRegistry(domain.TableRules{SmallBlind: 10, BigBlind: 20}, nil)
	connMgr := connection.NewManager()
	go connMgr.Start()
	ledger := domain.NewMemoryLedger(5000)

	return &routerFixture{
		registry: registry,
		connMgr:  connMgr,
		ledger:   ledger,
		router:   NewCommandRouter(registry, connMgr, ledger, 1000, nil),
	}
}

func (f *routerFixture) connect(t *testing.T, playerID string) *connection.Client {
	t.Helper()

	client := &connection.Client{
		ID:         "conn-" + playerID,
		Send:       make(chan []byte, 16),
		PlayerID:   playerID,
		PlayerName: playerID,
	}
	f.connMgr.Register <- client

	// Registration is processed by the manager goroutine; wait for it.
	require.Eventually(t, func() bool {
		return f.connMgr.AddTableToClient(client.ID, "probe")
	}, time.Second, time.Millisecond)
	f.connMgr.RemoveTableFromClient(client.ID, "probe")

	return client
}

func receiveEnvelope(t *testing.T, client *connection.Client) protocol.Envelope {
	t.Helper()

	select {
	case message := <-client.Send:
		var envelope protocol.Envelope
		require.NoError(t, json.Unmarshal(message, &envelope))
		return envelope
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return protocol.Envelope{}
	}
}

func TestJoinTableSeatsAtPublicTable(t *testing.T) {
	f := newRouterFixture(t)
	client := f.connect(t, "alice")

	err := f.router.HandleCommand(client, []byte(`{"name":"JOIN_TABLE"}`))
	require.NoError(t, err)

	envelope := receiveEnvelope(t, client)
	require.Equal(t, protocol.MsgTableJoined, envelope.Name)

	var payload protocol.TableJoinedPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, domain.PublicTableID, payload.TableID)
	assert.False(t, payload.Private)

	table, err := f.registry.GetTable(domain.PublicTableID)
	require.NoError(t, err)
	assert.True(t, table.HasPlayer("alice"))
	assert.Equal(t, 4000, f.ledger.Balance("alice"), "default buy-in debited")
	assert.True(t, f.connMgr.IsClientAtTable(client.ID, domain.PublicTableID))
}

func TestCreatePrivateTableSeatsOwner(t *testing.T) {
	f := newRouterFixture(t)
	client := f.connect(t, "alice")

	err := f.router.HandleCommand(client, []byte(`{"name":"CREATE_PRIVATE_TABLE","buyIn":500}`))
	require.NoError(t, err)

	envelope := receiveEnvelope(t, client)
	require.Equal(t, protocol.MsgTableJoined, envelope.Name)

	var payload protocol.TableJoinedPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.True(t, payload.Private)
	assert.Len(t, payload.TableID, 6)

	table, err := f.registry.GetTable(payload.TableID)
	require.NoError(t, err)
	assert.Equal(t, "alice", table.OwnerID)
	assert.Equal(t, 4500, f.ledger.Balance("alice"))
}

func TestUnknownCommandReturnsError(t *testing.T) {
	f := newRouterFixture(t)
	client := f.connect(t, "alice")

	err := f.router.HandleCommand(client, []byte(`{"name":"NO_SUCH_COMMAND"}`))
	require.Error(t, err)

	envelope := receiveEnvelope(t, client)
	assert.Equal(t, protocol.MsgError, envelope.Name)
}

func TestActionOnUnknownTableReturnsError(t *testing.T) {
	f := newRouterFixture(t)
	client := f.connect(t, "alice")

	err := f.router.HandleCommand(client, []byte(`{"name":"PLAYER_ACTION","tableId":"NOSUCH","action":"fold"}`))
	assert.ErrorIs(t, err, domain.ErrTableNotFound)

	envelope := receiveEnvelope(t, client)
	assert.Equal(t, protocol.MsgError, envelope.Name)
}

func TestLeaveTableRefunds(t *testing.T) {
	f := newRouterFixture(t)
	client := f.connect(t, "alice")

	require.NoError(t, f.router.HandleCommand(client, []byte(`{"name":"JOIN_TABLE","buyIn":800}`)))
	require.Equal(t, 4200, f.ledger.Balance("alice"))

	err := f.router.HandleCommand(client, []byte(`{"name":"LEAVE_TABLE","tableId":"main-table"}`))
	require.NoError(t, err)

	assert.Equal(t, 5000, f.ledger.Balance("alice"))
	assert.False(t, f.connMgr.IsClientAtTable(client.ID, domain.PublicTableID))
}

func TestDisconnectVacatesSeats(t *testing.T) {
	f := newRouterFixture(t)
	client := f.connect(t, "alice")

	require.NoError(t, f.router.HandleCommand(client, []byte(`{"name":"JOIN_TABLE"}`)))

	f.router.HandleDisconnect(client)

	table, err := f.registry.GetTable(domain.PublicTableID)
	require.NoError(t, err)
	assert.False(t, table.HasPlayer("alice"))
	assert.Equal(t, 5000, f.ledger.Balance("alice"))
}

func TestStartGameRoutedToTable(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")

	require.NoError(t, f.router.HandleCommand(alice, []byte(`{"name":"JOIN_TABLE"}`)))
	require.NoError(t, f.router.HandleCommand(bob, []byte(`{"name":"JOIN_TABLE"}`)))

	err := f.router.HandleCommand(alice, []byte(`{"name":"START_GAME","tableId":"main-table"}`))
	require.NoError(t, err)

	table, err := f.registry.GetTable(domain.PublicTableID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePreflop, table.CurrentPhase())
}

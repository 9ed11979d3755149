package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWrapsPayload(t *testing.T) {
	data, err := Encode(MsgError, ErrorPayload{Message: "not your turn"})
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, MsgError, envelope.Name)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "not your turn", payload.Message)
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, "JOIN_TABLE", JoinTable{}.Name())
	assert.Equal(t, "CREATE_PRIVATE_TABLE", CreatePrivateTable{}.Name())
	assert.Equal(t, "START_GAME", StartGame{}.Name())
	assert.Equal(t, "PLAYER_ACTION", PlayerAction{}.Name())
	assert.Equal(t, "LEAVE_TABLE", LeaveTable{}.Name())
}

func TestJoinTableDecodesFromEnvelope(t *testing.T) {
	message := []byte(`{"name":"JOIN_TABLE","tableId":"main-table","buyIn":500}`)

	var cmd JoinTable
	require.NoError(t, json.Unmarshal(message, &cmd))
	assert.Equal(t, "main-table", cmd.TableID)
	assert.Equal(t, 500, cmd.BuyIn)
}

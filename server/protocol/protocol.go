// Package protocol defines the websocket wire format: inbound commands from
// clients and outbound message envelopes to clients.
package protocol

import "encoding/json"

// Command is an inbound client request.
type Command interface {
	Name() string
}

// JoinTable seats the connection's player at a table. An empty TableID means
// the public table. BuyIn of zero uses the server default.
type JoinTable struct {
	TableID string `json:"tableId"`
	BuyIn   int    `json:"buyIn"`
}

func (c JoinTable) Name() string { return "JOIN_TABLE" }

// CreatePrivateTable creates an invite-only table owned by the requester and
// seats them at it.
type CreatePrivateTable struct {
	BuyIn int `json:"buyIn"`
}

func (c CreatePrivateTable) Name() string { return "CREATE_PRIVATE_TABLE" }

// StartGame starts a hand at a table the player is seated at.
type StartGame struct {
	TableID string `json:"tableId"`
}

func (c StartGame) Name() string { return "START_GAME" }

// PlayerAction is a betting action: fold, check, call or raise. Amount is the
// total bet level for raises and ignored otherwise.
type PlayerAction struct {
	TableID string `json:"tableId"`
	Action  string `json:"action"`
	Amount  int    `json:"amount"`
}

func (c PlayerAction) Name() string { return "PLAYER_ACTION" }

// LeaveTable vacates the player's seat and refunds their stack.
type LeaveTable struct {
	TableID string `json:"tableId"`
}

func (c LeaveTable) Name() string { return "LEAVE_TABLE" }

// Outbound message names.
const (
	MsgTableState  = "TABLE_STATE"
	MsgHoleCards   = "HOLE_CARDS"
	MsgTableJoined = "TABLE_JOINED"
	MsgError       = "ERROR"
)

// Envelope wraps an outbound message with its name for client consumption.
type Envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// Encode builds a serialized envelope around the given payload.
func Encode(name string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Name: name, Payload: data})
}

// ErrorPayload reports a rejected command to the originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// TableJoinedPayload confirms a successful seat. For private tables the
// table ID doubles as the invite code to share.
type TableJoinedPayload struct {
	TableID string `json:"tableId"`
	Private bool   `json:"private"`
}

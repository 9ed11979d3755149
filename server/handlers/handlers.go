package handlers

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tokenarena/poker/domain"
	"github.com/tokenarena/poker/server/connection"
	"github.com/tokenarena/poker/server/protocol"
)

// CommandRouter routes incoming commands to the appropriate handler
type CommandRouter struct {
	registry     *domain.Registry
	connMgr      *connection.Manager
	ledger       domain.Ledger
	defaultBuyIn int
	logger       *zap.Logger
}

// NewCommandRouter creates a new command router
func NewCommandRouter(registry *domain.Registry, connMgr *connection.Manager, ledger domain.Ledger, defaultBuyIn int, logger *zap.Logger) *CommandRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRouter{
		registry:     registry,
		connMgr:      connMgr,
		ledger:       ledger,
		defaultBuyIn: defaultBuyIn,
		logger:       logger,
	}
}

// HandleCommand processes an incoming command message. Rejections are
// reported back to the originating connection only; other players see
// nothing.
func (r *CommandRouter) HandleCommand(client *connection.Client, message []byte) error {
	var baseCmd struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(message, &baseCmd); err != nil {
		r.sendError(client, err)
		return err
	}

	var err error
	switch baseCmd.Name {
	case protocol.JoinTable{}.Name():
		var cmd protocol.JoinTable
		if err = json.Unmarshal(message, &cmd); err == nil {
			err = r.handleJoinTable(client, cmd)
		}

	case protocol.CreatePrivateTable{}.Name():
		var cmd protocol.CreatePrivateTable
		if err = json.Unmarshal(message, &cmd); err == nil {
			err = r.handleCreatePrivateTable(client, cmd)
		}

	case protocol.StartGame{}.Name():
		var cmd protocol.StartGame
		if err = json.Unmarshal(message, &cmd); err == nil {
			err = r.handleStartGame(client, cmd)
		}

	case protocol.PlayerAction{}.Name():
		var cmd protocol.PlayerAction
		if err = json.Unmarshal(message, &cmd); err == nil {
			err = r.handlePlayerAction(client, cmd)
		}

	case protocol.LeaveTable{}.Name():
		var cmd protocol.LeaveTable
		if err = json.Unmarshal(message, &cmd); err == nil {
			err = r.handleLeaveTable(client, cmd)
		}

	default:
		err = fmt.Errorf("unknown command type %q", baseCmd.Name)
	}

	if err != nil {
		r.logger.Info("command rejected",
			zap.String("command", baseCmd.Name),
			zap.String("playerID", client.PlayerID),
			zap.Error(err))
		r.sendError(client, err)
	}
	return err
}

// HandleDisconnect vacates every seat the client holds. The domain treats a
// disconnect exactly like a voluntary leave: fold if mid-hand, refund the
// stack.
func (r *CommandRouter) HandleDisconnect(client *connection.Client) {
	tableIDs := append([]string{}, client.TableIDs...)
	for _, tableID := range tableIDs {
		table, err := r.registry.GetTable(tableID)
		if err != nil {
			continue
		}
		if err := table.Leave(client.PlayerID, r.ledger); err != nil {
			r.logger.Error("disconnect leave failed",
				zap.String("tableID", tableID),
				zap.String("playerID", client.PlayerID),
				zap.Error(err))
		}
	}
}

func (r *CommandRouter) handleJoinTable(client *connection.Client, cmd protocol.JoinTable) error {
	var table *domain.Table
	if cmd.TableID == "" || cmd.TableID == domain.PublicTableID {
		table = r.registry.PublicTable()
	} else {
		var err error
		table, err = r.registry.GetTable(cmd.TableID)
		if err != nil {
			return err
		}
	}
	return r.seatAt(client, table, cmd.BuyIn)
}

func (r *CommandRouter) handleCreatePrivateTable(client *connection.Client, cmd protocol.CreatePrivateTable) error {
	table := r.registry.CreatePrivateTable(client.PlayerID)
	return r.seatAt(client, table, cmd.BuyIn)
}

// seatAt joins a table and subscribes the connection to its broadcasts.
// The subscription must be in place before Join runs so the seat's first
// state broadcast reaches the joiner.
func (r *CommandRouter) seatAt(client *connection.Client, table *domain.Table, buyIn int) error {
	if buyIn <= 0 {
		buyIn = r.defaultBuyIn
	}

	r.connMgr.AddTableToClient(client.ID, table.ID)
	if _, err := table.Join(client.PlayerID, client.PlayerName, client.ID, buyIn, r.ledger); err != nil {
		r.connMgr.RemoveTableFromClient(client.ID, table.ID)
		return err
	}

	confirmation, err := protocol.Encode(protocol.MsgTableJoined, protocol.TableJoinedPayload{
		TableID: table.ID,
		Private: table.Private,
	})
	if err != nil {
		return err
	}
	r.connMgr.SendToPlayer(client.PlayerID, confirmation)
	return nil
}

func (r *CommandRouter) handleStartGame(client *connection.Client, cmd protocol.StartGame) error {
	table, err := r.registry.GetTable(cmd.TableID)
	if err != nil {
		return err
	}
	return table.StartHand(client.PlayerID)
}

func (r *CommandRouter) handlePlayerAction(client *connection.Client, cmd protocol.PlayerAction) error {
	table, err := r.registry.GetTable(cmd.TableID)
	if err != nil {
		return err
	}
	return table.HandleAction(client.PlayerID, domain.ActionType(cmd.Action), cmd.Amount)
}

func (r *CommandRouter) handleLeaveTable(client *connection.Client, cmd protocol.LeaveTable) error {
	table, err := r.registry.GetTable(cmd.TableID)
	if err != nil {
		return err
	}
	if err := table.Leave(client.PlayerID, r.ledger); err != nil {
		return err
	}
	r.connMgr.RemoveTableFromClient(client.ID, cmd.TableID)
	return nil
}

func (r *CommandRouter) sendError(client *connection.Client, cause error) {
	message, err := protocol.Encode(protocol.MsgError, protocol.ErrorPayload{Message: cause.Error()})
	if err != nil {
		r.logger.Error("failed to encode error message", zap.Error(err))
		return
	}
	select {
	case client.Send <- message:
	default:
		// Slow consumer; drop rather than block the reader.
	}
}

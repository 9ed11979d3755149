package events

import (
	"encoding/json"

	"github.com/sanity-io/litter"
	"go.uber.org/zap"

	"github.com/tokenarena/poker/domain"
	"github.com/tokenarena/poker/domain/events"
	"github.com/tokenarena/poker/server/connection"
	"github.com/tokenarena/poker/server/protocol"
)

// Dispatcher handles routing domain events to clients. Table-wide events are
// projected through the public view so hidden information never leaves the
// domain; hole cards go to their owner's connection only.
type Dispatcher struct {
	registry *domain.Registry
	connMgr  *connection.Manager
	logger   *zap.Logger
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(registry *domain.Registry, connMgr *connection.Manager, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry: registry,
		connMgr:  connMgr,
		logger:   logger,
	}
}

// HandleEvent processes domain events and sends them to clients
func (d *Dispatcher) HandleEvent(event events.Event) {
	if ce := d.logger.Check(zap.DebugLevel, "dispatching event"); ce != nil {
		ce.Write(zap.String("name", event.Name()), zap.String("detail", litter.Sdump(event)))
	}

	switch e := event.(type) {
	case events.TableStateChanged:
		d.broadcastState(e.TableID)

	case events.HoleCardsDealt:
		payload := domain.PrivateView{TableID: e.TableID, HoleCards: e.HoleCards}
		message, err := protocol.Encode(protocol.MsgHoleCards, payload)
		if err != nil {
			d.logger.Error("failed to encode hole cards", zap.Error(err))
			return
		}
		d.connMgr.SendToPlayer(e.PlayerID, message)

	case events.PlayerJoinedTable:
		d.broadcastEvent(e.TableID, event)

	case events.PlayerLeftTable:
		d.broadcastEvent(e.TableID, event)

	case events.HandStarted:
		d.broadcastEvent(e.TableID, event)

	case events.HandEnded:
		d.broadcastEvent(e.TableID, event)
	}
}

// broadcastState projects the table's authoritative state and fans it out.
// The event itself carries no state; receivers always get the latest view,
// which makes redundant deliveries harmless.
func (d *Dispatcher) broadcastState(tableID string) {
	table, err := d.registry.GetTable(tableID)
	if err != nil {
		// Table reclaimed between emit and dispatch; nothing to send.
		return
	}

	message, err := protocol.Encode(protocol.MsgTableState, table.PublicView())
	if err != nil {
		d.logger.Error("failed to encode table state", zap.Error(err))
		return
	}
	d.connMgr.SendToTable(tableID, message)
}

func (d *Dispatcher) broadcastEvent(tableID string, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to marshal event payload", zap.Error(err))
		return
	}

	message, err := json.Marshal(protocol.Envelope{Name: event.Name(), Payload: payload})
	if err != nil {
		d.logger.Error("failed to marshal event envelope", zap.Error(err))
		return
	}
	d.connMgr.SendToTable(tableID, message)
}

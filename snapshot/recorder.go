package snapshot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tokenarena/poker/domain"
	"github.com/tokenarena/poker/domain/events"
)

// Recorder listens to table events and captures snapshots after the moments
// that move chips across the ledger boundary: seats taken, seats vacated and
// hands settled. Captures run off the hot path; a failed write is logged and
// the next event retries naturally.
type Recorder struct {
	registry *domain.Registry
	store    Store
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRecorder wires a recorder to a registry. Call Attach before tables exist.
func NewRecorder(registry *domain.Registry, store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		registry: registry,
		store:    store,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Attach subscribes the recorder to every table the registry creates and to
// table reclamation.
func (r *Recorder) Attach() {
	r.registry.AddEventHandler(r.handleEvent)
	r.registry.AddReclaimHandler(r.handleReclaim)
}

func (r *Recorder) handleEvent(event events.Event) {
	var tableID string
	switch e := event.(type) {
	case events.PlayerJoinedTable:
		tableID = e.TableID
	case events.PlayerLeftTable:
		tableID = e.TableID
	case events.HandEnded:
		tableID = e.TableID
	default:
		return
	}
	go r.capture(tableID)
}

func (r *Recorder) capture(tableID string) {
	table, err := r.registry.GetTable(tableID)
	if err != nil {
		// Reclaimed in the meantime; the reclaim handler cleans up.
		return
	}

	view := table.PublicView()
	snap := TableSnapshot{
		TableID: view.TableID,
		Phase:   string(view.Phase),
		Pot:     view.Pot,
		Stacks:  make(map[string]int, len(view.Seats)),
		TakenAt: time.Now(),
	}
	for _, seat := range view.Seats {
		snap.Stacks[seat.PlayerID] = seat.Chips
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Save(ctx, snap); err != nil {
		r.logger.Error("snapshot save failed", zap.String("tableID", tableID), zap.Error(err))
	}
}

func (r *Recorder) handleReclaim(tableID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Delete(ctx, tableID); err != nil {
		r.logger.Error("snapshot delete failed", zap.String("tableID", tableID), zap.Error(err))
	}
}

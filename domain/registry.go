package domain

import (
	"crypto/rand"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"github.com/tokenarena/poker/domain/events"
)

// PublicTableID is the identifier of the always-available public table.
const PublicTableID = "main-table"

// codeAlphabet deliberately omits the ambiguous 0/O/1/I/L characters.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Registry owns the set of live tables: the lazily-created public table and
// any number of private tables addressed by invite code. Private tables are
// reclaimed as soon as their last seat empties.
type Registry struct {
	mu     sync.Mutex
	tables map[string]*Table

	rules           TableRules
	eventHandlers   []events.EventHandler
	reclaimHandlers []func(tableID string)
	logger          *zap.Logger
}

// NewRegistry creates an empty registry. Tables created through it inherit
// the given rules.
func NewRegistry(rules TableRules, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tables: make(map[string]*Table),
		rules:  rules,
		logger: logger,
	}
}

// AddEventHandler registers a callback attached to every table the registry
// creates. Handlers must be registered before any table exists.
func (r *Registry) AddEventHandler(handler events.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventHandlers = append(r.eventHandlers, handler)
}

// AddReclaimHandler registers a callback invoked after a table is removed
// from the registry.
func (r *Registry) AddReclaimHandler(handler func(tableID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reclaimHandlers = append(r.reclaimHandlers, handler)
}

// PublicTable returns the shared public table, creating it on first use.
func (r *Registry) PublicTable() *Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	if table, ok := r.tables[PublicTableID]; ok {
		return table
	}
	table := r.newTableLocked(PublicTableID, false, "")
	r.logger.Info("public table created", zap.String("tableID", PublicTableID))
	return table
}

// CreatePrivateTable creates an invite-only table owned by the requester and
// returns it. The table ID doubles as the invite code.
func (r *Registry) CreatePrivateTable(ownerID string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.uniqueCodeLocked()
	table := r.newTableLocked(code, true, ownerID)
	r.logger.Info("private table created",
		zap.String("tableID", code),
		zap.String("ownerID", ownerID))
	return table
}

// GetTable looks up a table by ID or invite code.
func (r *Registry) GetTable(tableID string) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.tables[tableID]
	if !ok {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// Tables returns a snapshot of all live tables.
func (r *Registry) Tables() []*Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]*Table, 0, len(r.tables))
	for _, table := range r.tables {
		tables = append(tables, table)
	}
	return tables
}

func (r *Registry) newTableLocked(id string, private bool, ownerID string) *Table {
	table := NewTable(id, private, ownerID, r.rules, r.logger)
	for _, handler := range r.eventHandlers {
		table.RegisterEventHandler(handler)
	}
	table.RegisterEventHandler(r.handleTableEvent)
	r.tables[id] = table
	return table
}

// handleTableEvent reclaims private tables once their last seat empties. The
// public table is never reclaimed.
func (r *Registry) handleTableEvent(event events.Event) {
	left, ok := event.(events.PlayerLeftTable)
	if !ok {
		return
	}

	r.mu.Lock()
	table, exists := r.tables[left.TableID]
	if !exists || !table.Private || table.SeatedCount() > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.tables, left.TableID)
	handlers := append([]func(string){}, r.reclaimHandlers...)
	r.mu.Unlock()

	r.logger.Info("private table reclaimed", zap.String("tableID", left.TableID))
	for _, handler := range handlers {
		handler(left.TableID)
	}
}

func (r *Registry) uniqueCodeLocked() string {
	for {
		code := generateCode()
		if _, taken := r.tables[code]; !taken {
			return code
		}
	}
}

func generateCode() string {
	buf := make([]byte, codeLength)
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand failing means the process has bigger problems
			panic(err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}

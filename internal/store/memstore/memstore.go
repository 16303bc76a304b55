// Package memstore is an in-memory implementation of the store interfaces.
//
// Transactions are serialised by a mutex and run against a private copy of
// the data, which replaces the shared state only on commit. Faults can be
// injected per operation to exercise rollback paths.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Operation names accepted by InjectFault.
const (
	OpItemCreate       = "items.create"
	OpItemGet          = "items.get"
	OpItemGetForUpdate = "items.get_for_update"
	OpItemUpdate       = "items.update"
	OpItemFind         = "items.find"
	OpCollectionCreate = "collections.create"
	OpCollectionGet    = "collections.get"
	OpCollectionList   = "collections.list"
	OpCollectionUpdate = "collections.update"
	OpLedgerGet        = "ledger.get"
	OpLedgerUpsert     = "ledger.upsert"
	OpSettingsGet      = "settings.get"
	OpSettingsSave     = "settings.save"
	OpCommit           = "tx.commit"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("memstore: injected fault")

type fault struct {
	skip int
	err  error
}

type state struct {
	items       map[domain.ItemKey]*domain.Item
	collections map[uuid.UUID]*domain.Collection
	ledger      map[domain.Day]domain.LedgerEntry
	settings    *domain.Settings
}

func newState() *state {
	return &state{
		items:       make(map[domain.ItemKey]*domain.Item),
		collections: make(map[uuid.UUID]*domain.Collection),
		ledger:      make(map[domain.Day]domain.LedgerEntry),
	}
}

func (s *state) clone() *state {
	out := &state{
		items:       make(map[domain.ItemKey]*domain.Item, len(s.items)),
		collections: make(map[uuid.UUID]*domain.Collection, len(s.collections)),
		ledger:      make(map[domain.Day]domain.LedgerEntry, len(s.ledger)),
	}
	for k, v := range s.items {
		out.items[k] = v.Clone()
	}
	for k, v := range s.collections {
		out.collections[k] = cloneCollection(v)
	}
	for k, v := range s.ledger {
		out.ledger[k] = v
	}
	if s.settings != nil {
		settings := *s.settings
		out.settings = &settings
	}
	return out
}

// Store holds all data in memory. The zero value is not usable; call New.
type Store struct {
	txMu sync.Mutex   // held for the whole of a transaction or a single write
	mu   sync.RWMutex // guards data
	data *state

	faultMu sync.Mutex
	faults  map[string]*fault
	commits int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data:   newState(),
		faults: make(map[string]*fault),
	}
}

var _ store.TxRunner = (*Store)(nil)

// InjectFault makes op fail with err (ErrInjected if nil) on every call
// after the first skip calls.
func (s *Store) InjectFault(op string, skip int, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = &fault{skip: skip, err: err}
}

// ClearFaults removes all injected faults.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = make(map[string]*fault)
}

// Commits returns the number of committed transactions.
func (s *Store) Commits() int {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.commits
}

func (s *Store) check(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	return f.err
}

// RunInTx implements store.TxRunner. fn sees its own writes; other callers
// see none of them unless fn returns nil and the commit succeeds.
func (s *Store) RunInTx(ctx context.Context, fn store.TxFn) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.bind(&view{store: s, tx: work})); err != nil {
		return err
	}

	if err := s.check(OpCommit); err != nil {
		return store.NewStoreError("transaction", "commit", "commit failed",
			errors.Join(store.ErrTransactionFailed, err))
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()

	s.faultMu.Lock()
	s.commits++
	s.faultMu.Unlock()
	return nil
}

// Stores implements store.TxRunner. Each call through the returned stores is
// atomic on its own. They must not be used inside RunInTx callbacks.
func (s *Store) Stores() store.Stores {
	return s.bind(&view{store: s})
}

func (s *Store) bind(v *view) store.Stores {
	return store.Stores{
		Items:       &itemStore{v},
		Collections: &collectionStore{v},
		Ledger:      &ledgerStore{v},
		Settings:    &settingsStore{v},
	}
}

// view is either bound to a transaction's private state or to the live data.
type view struct {
	store *Store
	tx    *state
}

func (v *view) read(op string, fn func(*state) error) error {
	if err := v.store.check(op); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.data)
}

func (v *view) write(op string, fn func(*state) error) error {
	if err := v.store.check(op); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.txMu.Lock()
	defer v.store.txMu.Unlock()
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

func cloneCollection(c *domain.Collection) *domain.Collection {
	out := *c
	if c.PredecessorID != nil {
		id := *c.PredecessorID
		out.PredecessorID = &id
	}
	if c.Deadline != nil {
		d := *c.Deadline
		out.Deadline = &d
	}
	return &out
}

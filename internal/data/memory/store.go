package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/domain/outbox"
	"github.com/mc-economy-bridge/internal/economy"
)

// DefaultOutboxRetention bounds the outbox rows kept when nothing drains them
const DefaultOutboxRetention = 10000

// state holds every table. Rows are never mutated in place: writers put a fresh copy,
// so the undo log can restore the previous pointer.
type state struct {
	accounts map[string]*account.Account
	listings map[int64]*listing.Listing
	codes    map[string]*linkcode.LinkCode
	items    map[int64]*delivery.Item
	messages map[int64]*outbox.Message
	eventIDs map[uuid.UUID]int64
	order    []int64 // message ids, oldest first

	nextListingID int64
	nextItemID    int64
	nextMessageID int64

	inTx bool
	undo []func()
}

func newState() *state {
	return &state{
		accounts: make(map[string]*account.Account),
		listings: make(map[int64]*listing.Listing),
		codes:    make(map[string]*linkcode.LinkCode),
		items:    make(map[int64]*delivery.Item),
		messages: make(map[int64]*outbox.Message),
		eventIDs: make(map[uuid.UUID]int64),
	}
}

func (s *state) record(f func()) {
	if s.inTx {
		s.undo = append(s.undo, f)
	}
}

func (s *state) begin() {
	s.inTx = true
	s.undo = nil
}

func (s *state) commit() {
	s.inTx = false
	s.undo = nil
}

func (s *state) rollback() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.commit()
}

func restore[K comparable, V any](m map[K]V, k K, prev V, existed bool) {
	if existed {
		m[k] = prev
		return
	}
	delete(m, k)
}

func (s *state) nextID(counter *int64) int64 {
	prev := *counter
	s.record(func() { *counter = prev })
	*counter++
	return *counter
}

func (s *state) putAccount(a *account.Account) {
	prev, existed := s.accounts[a.IdentityKey]
	s.record(func() { restore(s.accounts, a.IdentityKey, prev, existed) })
	s.accounts[a.IdentityKey] = a
}

func (s *state) putListing(l *listing.Listing) {
	prev, existed := s.listings[l.ID]
	s.record(func() { restore(s.listings, l.ID, prev, existed) })
	s.listings[l.ID] = l
}

func (s *state) putCode(lc *linkcode.LinkCode) {
	prev, existed := s.codes[lc.Code]
	s.record(func() { restore(s.codes, lc.Code, prev, existed) })
	s.codes[lc.Code] = lc
}

func (s *state) deleteCode(code string) {
	prev, existed := s.codes[code]
	if !existed {
		return
	}
	s.record(func() { s.codes[code] = prev })
	delete(s.codes, code)
}

func (s *state) putItem(i *delivery.Item) {
	prev, existed := s.items[i.ID]
	s.record(func() { restore(s.items, i.ID, prev, existed) })
	s.items[i.ID] = i
}

func (s *state) insertMessage(m *outbox.Message) {
	n := len(s.order)
	s.record(func() {
		delete(s.messages, m.ID)
		delete(s.eventIDs, m.EventID)
		s.order = s.order[:n]
	})
	s.messages[m.ID] = m
	s.eventIDs[m.EventID] = m.ID
	s.order = append(s.order, m.ID)
}

func (s *state) replaceMessage(m *outbox.Message) {
	prev := s.messages[m.ID]
	s.record(func() { s.messages[m.ID] = prev })
	s.messages[m.ID] = m
}

// trimOutbox drops the oldest messages beyond limit; limit <= 0 keeps everything
func (s *state) trimOutbox(limit int) {
	if limit <= 0 {
		return
	}
	for len(s.order) > limit {
		id := s.order[0]
		s.order = s.order[1:]
		if m, ok := s.messages[id]; ok {
			delete(s.eventIDs, m.EventID)
			delete(s.messages, id)
		}
	}
}

// access runs f against the state it is bound to
type access func(f func(st *state) error) error

// Store keeps every repository in process memory. Transactions run one at a time
// against the live tables and are undone row by row when fn fails.
type Store struct {
	mu        sync.Mutex
	st        *state
	retention int
}

type Option func(*Store)

// WithOutboxRetention caps the outbox rows kept in memory; n <= 0 disables the cap
func WithOutboxRetention(n int) Option {
	return func(s *Store) { s.retention = n }
}

func NewStore(opts ...Option) *Store {
	s := &Store{st: newState(), retention: DefaultOutboxRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ economy.TxManager = (*Store)(nil)

// WithinTx serializes fn against every other transaction and commits on success
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, stores economy.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.begin()
	defer func() {
		if r := recover(); r != nil {
			s.st.rollback()
			panic(r)
		}
	}()

	inTx := func(f func(st *state) error) error { return f(s.st) }
	if err := fn(ctx, bind(inTx)); err != nil {
		s.st.rollback()
		return err
	}

	s.st.commit()
	s.st.trimOutbox(s.retention)
	return nil
}

// Stores returns repositories that take the lock on every call
func (s *Store) Stores() economy.Stores {
	return bind(func(f func(st *state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := f(s.st)
		s.st.trimOutbox(s.retention)
		return err
	})
}

func bind(a access) economy.Stores {
	return economy.Stores{
		Accounts:   &AccountRepository{access: a},
		Listings:   &ListingRepository{access: a},
		LinkCodes:  &LinkCodeRepository{access: a},
		Deliveries: &DeliveryRepository{access: a},
		Outbox:     &OutboxRepository{access: a},
	}
}

func copyAccount(a *account.Account) *account.Account {
	c := *a
	if a.GameUUID != nil {
		v := *a.GameUUID
		c.GameUUID = &v
	}
	return &c
}

func copyListing(l *listing.Listing) *listing.Listing {
	c := *l
	if l.BuyerGameUUID != nil {
		v := *l.BuyerGameUUID
		c.BuyerGameUUID = &v
	}
	if l.SoldAt != nil {
		v := *l.SoldAt
		c.SoldAt = &v
	}
	return &c
}

func copyCode(lc *linkcode.LinkCode) *linkcode.LinkCode {
	c := *lc
	if lc.UsedBy != nil {
		v := *lc.UsedBy
		c.UsedBy = &v
	}
	if lc.UsedAt != nil {
		v := *lc.UsedAt
		c.UsedAt = &v
	}
	return &c
}

func copyItem(i *delivery.Item) *delivery.Item {
	c := *i
	if i.ListingID != nil {
		v := *i.ListingID
		c.ListingID = &v
	}
	if i.DeliveredAt != nil {
		v := *i.DeliveredAt
		c.DeliveredAt = &v
	}
	return &c
}

func copyMessage(m *outbox.Message) *outbox.Message {
	c := *m
	c.Payload = append([]byte(nil), m.Payload...)
	if m.LastAttemptAt != nil {
		v := *m.LastAttemptAt
		c.LastAttemptAt = &v
	}
	return &c
}

package testhelpers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// MemoryStore is an in-memory stand-in for the Postgres schema. Ledger
// transactions are serialized by a store-wide mutex and rolled back with an
// undo log, mirroring the partition lock plus partial unique index of the
// real store.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	rooms     map[uuid.UUID]*models.Room
	overrides map[string]*models.SlotOverride
	bookings  map[uuid.UUID]*models.Booking
	watches   map[uuid.UUID]*models.SlotWatch
	outbox    []*models.OutboxEvent
	operators map[uuid.UUID]*models.Operator

	// LockedPartitions records every LockPartition call in order.
	LockedPartitions []string

	// FailNextInsert makes the next InsertBooking fail with this error.
	FailNextInsert error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:     map[uuid.UUID]*models.Room{},
		overrides: map[string]*models.SlotOverride{},
		bookings:  map[uuid.UUID]*models.Booking{},
		watches:   map[uuid.UUID]*models.SlotWatch{},
		operators: map[uuid.UUID]*models.Operator{},
	}
}

func (s *MemoryStore) Rooms() repositories.RoomRepository { return &memRooms{s} }

func (s *MemoryStore) Overrides() repositories.SlotOverrideRepository { return &memOverrides{s} }

func (s *MemoryStore) Bookings() repositories.BookingRepository { return &memBookings{s} }

func (s *MemoryStore) Ledger() repositories.BookingLedgerRepository { return &memLedger{s} }

func (s *MemoryStore) SlotWatches() repositories.SlotWatchRepository { return &memWatches{s} }

func (s *MemoryStore) Outbox() repositories.OutboxRepository { return &memOutbox{s} }

func (s *MemoryStore) Operators() repositories.OperatorRepository { return &memOperators{s} }

// SeedBooking stores b as-is, bypassing every uniqueness check. It exists to
// model legacy rows that predate the active-slot index.
func (s *MemoryStore) SeedBooking(b *models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = cloneBooking(b)
}

// Booking returns a copy of the stored booking, or nil.
func (s *MemoryStore) Booking(id uuid.UUID) *models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.bookings[id]; ok {
		return cloneBooking(b)
	}
	return nil
}

// Watch returns a copy of the stored watch, or nil.
func (s *MemoryStore) Watch(id uuid.UUID) *models.SlotWatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.watches[id]; ok {
		cp := *w
		return &cp
	}
	return nil
}

func (s *MemoryStore) OutboxEvents() []*models.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.OutboxEvent, len(s.outbox))
	for i, e := range s.outbox {
		cp := *e
		out[i] = &cp
	}
	return out
}

func (s *MemoryStore) ActiveOccupants(key models.SlotKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bookings {
		if b.IsActive() && b.SlotKey() == key {
			n++
		}
	}
	return n
}

func cloneBooking(b *models.Booking) *models.Booking {
	cp := *b
	return &cp
}

func cloneRoom(r *models.Room) *models.Room {
	cp := *r
	cp.PricePerGroup = append([]models.GroupPrice(nil), r.PricePerGroup...)
	cp.OperatingDays = append([]int16(nil), r.OperatingDays...)
	cp.DefaultSlots = append([]models.SlotTemplate(nil), r.DefaultSlots...)
	if r.OverflowSlot != nil {
		o := *r.OverflowSlot
		o.Days = append([]int16(nil), r.OverflowSlot.Days...)
		cp.OverflowSlot = &o
	}
	return &cp
}

func overrideKey(roomID uuid.UUID, date string) string {
	return roomID.String() + "|" + date
}

/* ------------------------------------------------------------------
   Rooms
------------------------------------------------------------------ */

type memRooms struct{ s *MemoryStore }

func (r *memRooms) Create(_ context.Context, room *models.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := cloneRoom(room)
	cp.RowVersion = 1
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.rooms[room.ID] = cp
	room.RowVersion = 1
	return nil
}

func (r *memRooms) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if room, ok := r.s.rooms[id]; ok {
		return cloneRoom(room), nil
	}
	return nil, nil
}

func (r *memRooms) ListByOperatorID(_ context.Context, operatorID uuid.UUID) ([]*models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Room
	for _, room := range r.s.rooms {
		if room.OperatorID == operatorID {
			out = append(out, cloneRoom(room))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *memRooms) ListAll(_ context.Context) ([]*models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Room
	for _, room := range r.s.rooms {
		out = append(out, cloneRoom(room))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *memRooms) UpdateIfVersion(_ context.Context, room *models.Room, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.rooms[room.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := cloneRoom(room)
	cp.RowVersion = expected + 1
	cp.CreatedAt = stored.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	r.s.rooms[room.ID] = cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memRooms) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Room) error) error {
	return repositories.VersionedUpdater[*models.Room]{
		Table:  "rooms",
		Load:   r.GetByID,
		Update: r.UpdateIfVersion,
	}.Apply(ctx, id, mutate)
}

/* ------------------------------------------------------------------
   Slot overrides
------------------------------------------------------------------ */

type memOverrides struct{ s *MemoryStore }

func (o *memOverrides) Get(_ context.Context, roomID uuid.UUID, date string) (*models.SlotOverride, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	if ov, ok := o.s.overrides[overrideKey(roomID, date)]; ok {
		cp := *ov
		cp.Slots = append([]models.OverrideSlot(nil), ov.Slots...)
		return &cp, nil
	}
	return nil, nil
}

func (o *memOverrides) Upsert(_ context.Context, ov *models.SlotOverride) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	cp := *ov
	cp.Slots = append([]models.OverrideSlot(nil), ov.Slots...)
	o.s.overrides[overrideKey(ov.RoomID, ov.Date)] = &cp
	return nil
}

func (o *memOverrides) Delete(_ context.Context, roomID uuid.UUID, date string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	k := overrideKey(roomID, date)
	if _, ok := o.s.overrides[k]; !ok {
		return pgx.ErrNoRows
	}
	delete(o.s.overrides, k)
	return nil
}

/* ------------------------------------------------------------------
   Bookings (reads)
------------------------------------------------------------------ */

type memBookings struct{ s *MemoryStore }

func (b *memBookings) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	return b.s.Booking(id), nil
}

func (b *memBookings) ListByRoomAndDate(_ context.Context, roomID uuid.UUID, date string) ([]*models.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	return b.s.listForDate(roomID, date), nil
}

func (b *memBookings) ListByOwner(_ context.Context, userID string) ([]*models.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	var out []*models.Booking
	for _, bk := range b.s.bookings {
		if bk.OwnerUserID != nil && *bk.OwnerUserID == userID {
			out = append(out, cloneBooking(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *memBookings) CompleteUpcomingBefore(_ context.Context, roomID uuid.UUID, date string) (int64, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	var n int64
	for _, bk := range b.s.bookings {
		if bk.RoomID == roomID && bk.Status == models.BookingStatusUpcoming && bk.Date < date {
			bk.Status = models.BookingStatusCompleted
			bk.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// listForDate must be called with mu held.
func (s *MemoryStore) listForDate(roomID uuid.UUID, date string) []*models.Booking {
	var out []*models.Booking
	for _, bk := range s.bookings {
		if bk.RoomID == roomID && bk.Date == date {
			out = append(out, cloneBooking(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

/* ------------------------------------------------------------------
   Ledger
------------------------------------------------------------------ */

type memLedger struct{ s *MemoryStore }

func (l *memLedger) RunInTx(ctx context.Context, fn func(tx repositories.LedgerTx) error) error {
	l.s.txMu.Lock()
	defer l.s.txMu.Unlock()

	tx := &memTx{s: l.s}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

type memTx struct {
	s    *MemoryStore
	undo []func()
}

func (t *memTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) LockPartition(_ context.Context, roomID uuid.UUID, date string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.LockedPartitions = append(t.s.LockedPartitions, repositories.PartitionLockKey(roomID, date))
	return nil
}

func (t *memTx) GetBooking(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	return t.s.Booking(id), nil
}

func (t *memTx) GetBookingForUpdate(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	return t.s.Booking(id), nil
}

func (t *memTx) ListBookingsForDate(_ context.Context, roomID uuid.UUID, date string) ([]*models.Booking, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.listForDate(roomID, date), nil
}

func (t *memTx) InsertBooking(_ context.Context, b *models.Booking) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if err := t.s.FailNextInsert; err != nil {
		t.s.FailNextInsert = nil
		return err
	}
	for _, other := range t.s.bookings {
		if other.BookingCode == b.BookingCode {
			return repositories.ErrBookingCodeTaken
		}
		if b.IsActive() && other.IsActive() && other.SlotKey() == b.SlotKey() {
			return utils.ErrSlotConflict
		}
	}
	t.s.bookings[b.ID] = cloneBooking(b)
	id := b.ID
	t.undo = append(t.undo, func() { delete(t.s.bookings, id) })
	return nil
}

func (t *memTx) UpdateBookingStatus(_ context.Context, id uuid.UUID, status models.BookingStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[id]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	prev := cloneBooking(b)
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	t.undo = append(t.undo, func() { t.s.bookings[id] = prev })
	return nil
}

func (t *memTx) UpdateBookingSlot(_ context.Context, id uuid.UUID, date, slotTime string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[id]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	target := models.SlotKey{RoomID: b.RoomID, Date: date, Time: slotTime}
	if b.IsActive() {
		for _, other := range t.s.bookings {
			if other.ID != id && other.IsActive() && other.SlotKey() == target {
				return utils.ErrSlotConflict
			}
		}
	}
	prev := cloneBooking(b)
	b.Date, b.Time = date, slotTime
	b.UpdatedAt = time.Now().UTC()
	t.undo = append(t.undo, func() { t.s.bookings[id] = prev })
	return nil
}

func (t *memTx) MarkSlotWatchesNotified(_ context.Context, key models.SlotKey, at time.Time) ([]uuid.UUID, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var ids []uuid.UUID
	for _, w := range t.s.watches {
		if w.Notified || w.SlotKey() != key {
			continue
		}
		w := w
		prev := *w
		w.Notified = true
		stamp := at
		w.NotifiedAt = &stamp
		ids = append(ids, w.ID)
		t.undo = append(t.undo, func() { *w = prev })
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (t *memTx) InsertOutboxEvent(_ context.Context, e *models.OutboxEvent) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cp := *e
	t.s.outbox = append(t.s.outbox, &cp)
	n := len(t.s.outbox)
	t.undo = append(t.undo, func() { t.s.outbox = t.s.outbox[:n-1] })
	return nil
}

/* ------------------------------------------------------------------
   Slot watches
------------------------------------------------------------------ */

type memWatches struct{ s *MemoryStore }

func (r *memWatches) Create(_ context.Context, w *models.SlotWatch) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.watches {
		if other.SlotKey() != w.SlotKey() {
			continue
		}
		if sameSubscriber(other.UserID, w.UserID) || sameSubscriber(other.GuestContact, w.GuestContact) {
			return false, nil
		}
	}
	cp := *w
	r.s.watches[w.ID] = &cp
	return true, nil
}

func sameSubscriber(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func (r *memWatches) FindByUser(_ context.Context, key models.SlotKey, userID string) (*models.SlotWatch, error) {
	return r.find(key, func(w *models.SlotWatch) bool { return w.UserID != nil && *w.UserID == userID }), nil
}

func (r *memWatches) FindByGuest(_ context.Context, key models.SlotKey, contact string) (*models.SlotWatch, error) {
	return r.find(key, func(w *models.SlotWatch) bool {
		return w.GuestContact != nil && *w.GuestContact == contact
	}), nil
}

func (r *memWatches) find(key models.SlotKey, match func(*models.SlotWatch) bool) *models.SlotWatch {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.watches {
		if w.SlotKey() == key && match(w) {
			cp := *w
			return &cp
		}
	}
	return nil
}

func (r *memWatches) ListByKey(_ context.Context, key models.SlotKey) ([]*models.SlotWatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.SlotWatch
	for _, w := range r.s.watches {
		if w.SlotKey() == key {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memWatches) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.watches, id)
	return nil
}

func (r *memWatches) Rearm(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.watches[id]
	if !ok || !w.Notified {
		return false, nil
	}
	w.Notified = false
	w.NotifiedAt = nil
	return true, nil
}

func (r *memWatches) DeleteStale(_ context.Context, notifiedBefore time.Time, today string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, w := range r.s.watches {
		stale := w.Notified && w.NotifiedAt != nil && w.NotifiedAt.Before(notifiedBefore)
		if stale || w.Date < today {
			delete(r.s.watches, id)
			n++
		}
	}
	return n, nil
}

/* ------------------------------------------------------------------
   Outbox
------------------------------------------------------------------ */

type memOutbox struct{ s *MemoryStore }

func (o *memOutbox) ListUnpublished(_ context.Context, limit int) ([]*models.OutboxEvent, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	var out []*models.OutboxEvent
	for _, e := range o.s.outbox {
		if e.PublishedAt == nil {
			cp := *e
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (o *memOutbox) MarkPublished(_ context.Context, id uuid.UUID) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for _, e := range o.s.outbox {
		if e.ID == id {
			now := time.Now().UTC()
			e.PublishedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

/* ------------------------------------------------------------------
   Operators
------------------------------------------------------------------ */

type memOperators struct{ s *MemoryStore }

func (o *memOperators) Create(_ context.Context, op *models.Operator) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	cp := *op
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	o.s.operators[op.ID] = &cp
	return nil
}

func (o *memOperators) GetByID(_ context.Context, id uuid.UUID) (*models.Operator, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	if op, ok := o.s.operators[id]; ok {
		cp := *op
		return &cp, nil
	}
	return nil, nil
}

func (o *memOperators) GetByEmail(_ context.Context, email string) (*models.Operator, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	for _, op := range o.s.operators {
		if strings.EqualFold(op.Email, email) {
			cp := *op
			return &cp, nil
		}
	}
	return nil, nil
}

/* ------------------------------------------------------------------
   Rate limits
------------------------------------------------------------------ */

// MemoryRateLimiter is a fixed-window counter without expiry.
type MemoryRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{counts: map[string]int{}}
}

func (m *MemoryRateLimiter) IncrementAndCheck(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

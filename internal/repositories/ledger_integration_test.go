//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
)

type pg struct {
	db         *pgxpool.Pool
	rooms      repositories.RoomRepository
	bookings   repositories.BookingRepository
	ledger     repositories.BookingLedgerRepository
	watches    repositories.SlotWatchRepository
	operatorID uuid.UUID
}

func setupPG(t *testing.T) *pg {
	t.Helper()
	url := os.Getenv("DB_URL")
	if url == "" {
		t.Skip("DB_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, repositories.Migrate(ctx, db))

	op := &models.Operator{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@integration.test",
		PasswordHash: "x",
		Role:         models.OperatorRoleOperator,
	}
	require.NoError(t, repositories.NewOperatorRepository(db).Create(ctx, op))

	return &pg{
		db:         db,
		rooms:      repositories.NewRoomRepository(db),
		bookings:   repositories.NewBookingRepository(db),
		ledger:     repositories.NewBookingLedgerRepository(db),
		watches:    repositories.NewSlotWatchRepository(db),
		operatorID: op.ID,
	}
}

func (p *pg) room(t *testing.T) *models.Room {
	t.Helper()
	r := testhelpers.NewRoom(p.operatorID)
	require.NoError(t, p.rooms.Create(context.Background(), r))
	return r
}

func (p *pg) insert(ctx context.Context, b *models.Booking) error {
	return p.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		return tx.InsertBooking(ctx, b)
	})
}

func TestActiveSlotIndex(t *testing.T) {
	p := setupPG(t)
	ctx := context.Background()
	room := p.room(t)
	key := models.SlotKey{RoomID: room.ID, Date: testhelpers.Friday, Time: "20:00"}

	first := testhelpers.NewBooking(key)
	require.NoError(t, p.insert(ctx, first))
	require.ErrorIs(t, p.insert(ctx, testhelpers.NewBooking(key)), utils.ErrSlotConflict)

	require.NoError(t, p.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		return tx.UpdateBookingStatus(ctx, first.ID, models.BookingStatusCancelled)
	}))
	require.NoError(t, p.insert(ctx, testhelpers.NewBooking(key)), "cancelled rows do not hold the key")

	all, err := p.bookings.ListByRoomAndDate(ctx, room.ID, testhelpers.Friday)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestInsertBooking_CodeCollisionKeepsTxUsable(t *testing.T) {
	p := setupPG(t)
	ctx := context.Background()
	room := p.room(t)

	a := testhelpers.NewBooking(models.SlotKey{RoomID: room.ID, Date: testhelpers.Friday, Time: "18:00"})
	require.NoError(t, p.insert(ctx, a))

	b := testhelpers.NewBooking(models.SlotKey{RoomID: room.ID, Date: testhelpers.Friday, Time: "20:00"})
	err := p.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		b.BookingCode = a.BookingCode
		if err := tx.InsertBooking(ctx, b); !errors.Is(err, repositories.ErrBookingCodeTaken) {
			return err
		}
		b.BookingCode = "UNL-" + uuid.NewString()[:8]
		return tx.InsertBooking(ctx, b)
	})
	require.NoError(t, err)

	got, err := p.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, b.BookingCode, got.BookingCode)
}

func TestConcurrentCreates_PostgresExactlyOneWins(t *testing.T) {
	p := setupPG(t)
	room := p.room(t)
	svc := services.NewBookingService(p.rooms, p.bookings, p.ledger, nil)
	const n = 10

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), uuid.NewString(), dtos.CreateBookingRequest{
				RoomID: room.ID, Date: testhelpers.Tuesday, Time: "22:00", Players: 2,
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, utils.ErrSlotConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestRoomUpdateWithRetry(t *testing.T) {
	p := setupPG(t)
	ctx := context.Background()
	room := p.room(t)

	require.NoError(t, p.rooms.UpdateWithRetry(ctx, room.ID, func(r *models.Room) error {
		r.Title = "Renamed"
		return nil
	}))
	got, err := p.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, room.DefaultSlots, got.DefaultSlots)
	require.Equal(t, room.OverflowSlot, got.OverflowSlot)
	require.Equal(t, room.RowVersion+1, got.RowVersion)

	missing, err := p.rooms.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestMarkSlotWatchesNotified_Postgres(t *testing.T) {
	p := setupPG(t)
	ctx := context.Background()
	room := p.room(t)
	key := models.SlotKey{RoomID: room.ID, Date: testhelpers.Friday, Time: "20:00"}
	user := "watcher"
	w := &models.SlotWatch{ID: uuid.New(), RoomID: key.RoomID, Date: key.Date, Time: key.Time, UserID: &user, CreatedAt: time.Now()}

	created, err := p.watches.Create(ctx, w)
	require.NoError(t, err)
	require.True(t, created)
	dup := *w
	dup.ID = uuid.New()
	created, err = p.watches.Create(ctx, &dup)
	require.NoError(t, err)
	require.False(t, created)

	var ids []uuid.UUID
	require.NoError(t, p.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		ids, err = tx.MarkSlotWatchesNotified(ctx, key, time.Now())
		return err
	}))
	require.Equal(t, []uuid.UUID{w.ID}, ids)

	got, err := p.watches.FindByUser(ctx, key, user)
	require.NoError(t, err)
	require.True(t, got.Notified)

	rearmed, err := p.watches.Rearm(ctx, w.ID)
	require.NoError(t, err)
	require.True(t, rearmed)
	rearmed, err = p.watches.Rearm(ctx, w.ID)
	require.NoError(t, err)
	require.False(t, rearmed, "an armed watch has nothing to re-arm")

	got, err = p.watches.FindByUser(ctx, key, user)
	require.NoError(t, err)
	require.False(t, got.Notified)
	require.Nil(t, got.NotifiedAt)
}

package booking

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/intellectualintimacy/backend/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Event{},
		&models.Reservation{},
		&models.ReservationNote{},
		&models.PaymentReconciliation{},
	))
	return db
}

func createEvent(t *testing.T, db *gorm.DB, capacity int, free bool, price int) *models.Event {
	t.Helper()
	event := models.Event{
		Title:       "Evening of Ideas",
		Description: "A slow conversation about attention.",
		Date:        time.Now().Add(72 * time.Hour).UTC().Truncate(24 * time.Hour),
		StartTime:   "18:30",
		EndTime:     "21:00",
		Location:    "The Commons, Cape Town",
		Capacity:    capacity,
		Price:       price,
		IsFree:      free,
		EventType:   models.EventTypeInPerson,
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

func spotsFor(t *testing.T, db *gorm.DB, event *models.Event) int {
	t.Helper()
	counts, err := ConfirmedCounts(db)
	require.NoError(t, err)
	return AvailableSpots(event.Capacity, counts[event.ID])
}

func TestReserveFreeEvent(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 10, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{
		UserName:  "Naledi M",
		UserEmail: "Naledi@Example.com",
		Notes:     "first time attendee",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationConfirmed, reservation.Status)
	assert.Equal(t, models.PaymentCompleted, reservation.PaymentStatus)
	assert.Equal(t, 0, reservation.PaymentAmount)
	assert.Nil(t, reservation.PaymentReference)
	assert.Equal(t, "naledi@example.com", reservation.UserEmail)
	assert.True(t, strings.HasPrefix(reservation.TicketID, "IIT-"))

	var notes []models.ReservationNote
	require.NoError(t, db.Where("reservation_id = ?", reservation.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NoteReserved, notes[0].Action)
	assert.Equal(t, "first time attendee", notes[0].Reason)
}

func TestReserveCapacityWalkthrough(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 2, true, 0)

	assert.Equal(t, 2, spotsFor(t, db, event))

	a, err := Reserve(db, event.ID, ReserveRequest{UserName: "A", UserEmail: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, spotsFor(t, db, event))

	_, err = Reserve(db, event.ID, ReserveRequest{UserName: "B", UserEmail: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, spotsFor(t, db, event))

	_, err = Reserve(db, event.ID, ReserveRequest{UserName: "C", UserEmail: "c@example.com"})
	assert.ErrorIs(t, err, ErrSoldOut)

	_, err = Cancel(db, a.TicketID, "a@example.com", "schedule clash")
	require.NoError(t, err)
	assert.Equal(t, 1, spotsFor(t, db, event))

	// the freed spot is reservable again
	_, err = Reserve(db, event.ID, ReserveRequest{UserName: "D", UserEmail: "d@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, spotsFor(t, db, event))
}

func TestReserveUnknownEvent(t *testing.T) {
	db := setupDB(t)
	createEvent(t, db, 5, true, 0)

	_, err := Reserve(db, uuid.New(), ReserveRequest{UserName: "X", UserEmail: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelIsOneWay(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{UserName: "A", UserEmail: "a@example.com"})
	require.NoError(t, err)

	_, err = Cancel(db, reservation.TicketID, "a@example.com", "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	cancelled, err := Cancel(db, reservation.TicketID, "a@example.com", "cannot make it")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, cancelled.Status)

	_, err = Cancel(db, reservation.TicketID, "a@example.com", "again")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	// nothing flips it back
	var stored models.Reservation
	require.NoError(t, db.First(&stored, "ticket_id = ?", reservation.TicketID).Error)
	assert.Equal(t, models.ReservationCancelled, stored.Status)
}

func TestCancelRequiresMatchingEmail(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{UserName: "A", UserEmail: "a@example.com"})
	require.NoError(t, err)

	_, err = Cancel(db, reservation.TicketID, "intruder@example.com", "not mine")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestRefund(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, false, 25000)

	reference := "ps_ref_123"
	reservation, err := Reserve(db, event.ID, ReserveRequest{
		UserName:         "A",
		UserEmail:        "a@example.com",
		PaymentAmount:    event.Price,
		PaymentReference: &reference,
	})
	require.NoError(t, err)

	_, err = RequestRefund(db, reservation.TicketID, "a@example.com", "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	refunded, err := RequestRefund(db, reservation.TicketID, "a@example.com", "event rescheduled")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefundRequested, refunded.PaymentStatus)
	// reservation itself stays confirmed and attendable
	assert.Equal(t, models.ReservationConfirmed, refunded.Status)

	// refund_requested is terminal from here
	_, err = RequestRefund(db, reservation.TicketID, "a@example.com", "once more")
	assert.ErrorIs(t, err, ErrRefundNotAllowed)
}

func TestRequestRefundRejectedForFreeReservation(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{UserName: "A", UserEmail: "a@example.com"})
	require.NoError(t, err)

	_, err = RequestRefund(db, reservation.TicketID, "a@example.com", "why not")
	assert.ErrorIs(t, err, ErrRefundNotAllowed)
}

func TestAuditTrailAppendsInOrder(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{
		UserName:  "A",
		UserEmail: "a@example.com",
		Notes:     "vegetarian",
	})
	require.NoError(t, err)

	_, err = Cancel(db, reservation.TicketID, "a@example.com", "travel fell through")
	require.NoError(t, err)

	found, err := FindByTicket(db, reservation.TicketID, "a@example.com")
	require.NoError(t, err)
	require.Len(t, found.Notes, 2)
	assert.Equal(t, models.NoteReserved, found.Notes[0].Action)
	assert.Equal(t, "vegetarian", found.Notes[0].Reason)
	assert.Equal(t, models.NoteCancelled, found.Notes[1].Action)
	assert.Equal(t, "travel fell through", found.Notes[1].Reason)
}

func TestFindByReference(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, false, 15000)

	reference := "ps_ref_777"
	reservation, err := Reserve(db, event.ID, ReserveRequest{
		UserName:         "A",
		UserEmail:        "a@example.com",
		PaymentAmount:    event.Price,
		PaymentReference: &reference,
	})
	require.NoError(t, err)

	found, err := FindByReference(db, reference)
	require.NoError(t, err)
	assert.Equal(t, reservation.TicketID, found.TicketID)

	_, err = FindByReference(db, "ps_ref_unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordReconciliation(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, false, 15000)

	require.NoError(t, RecordReconciliation(db, "ps_ref_lost", event.ID, "A@Example.com", event.Price))

	var rec models.PaymentReconciliation
	require.NoError(t, db.First(&rec, "payment_reference = ?", "ps_ref_lost").Error)
	assert.Equal(t, "a@example.com", rec.UserEmail)
	assert.False(t, rec.Resolved)

	// duplicate reference is refused by the unique index
	assert.Error(t, RecordReconciliation(db, "ps_ref_lost", event.ID, "a@example.com", event.Price))
}

func TestAvailableSpotsFloorsAtZero(t *testing.T) {
	assert.Equal(t, 3, AvailableSpots(5, 2))
	assert.Equal(t, 0, AvailableSpots(5, 5))
	assert.Equal(t, 0, AvailableSpots(5, 7))
}

func TestNewTicketID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id := NewTicketID()
		assert.True(t, strings.HasPrefix(id, "IIT-"))
		_, dup := seen[id]
		assert.False(t, dup, "duplicate ticket id %s", id)
		seen[id] = struct{}{}
	}
}

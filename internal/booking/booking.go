// Package booking owns the reservation workflow: spot accounting, the
// capacity-guarded reserve, and the cancel / refund-request transitions.
// Handlers translate its sentinel errors into HTTP statuses.
package booking

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/models"
)

var (
	ErrNotFound         = errors.New("reservation or event not found")
	ErrSoldOut          = errors.New("event is sold out")
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
	ErrReasonRequired   = errors.New("a reason is required")
	ErrRefundNotAllowed = errors.New("refund cannot be requested for this reservation")
)

// NewTicketID returns an opaque ticket identifier: millisecond timestamp
// plus a random suffix. Uniqueness is probabilistic here and enforced by
// the unique index on reservations.ticket_id.
func NewTicketID() string {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a UUID rather than return a zeroed suffix.
		return fmt.Sprintf("IIT-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:12])
	}
	return fmt.Sprintf("IIT-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// ReserveRequest carries the validated form input for a reservation.
// PaymentReference must be nil for free events and set for paid ones,
// after the gateway has verified it.
type ReserveRequest struct {
	UserName         string
	UserEmail        string
	UserPhone        string
	Notes            string
	PaymentAmount    int
	PaymentReference *string
}

// Reserve inserts a confirmed reservation if and only if the event still has
// capacity at commit time.
//
// The naive "read spots, then insert" approach double-books the last seat
// under concurrency, so the whole check runs in one transaction that starts
// by bumping the event's lock_version. That UPDATE takes a row lock on the
// event until commit, serialising concurrent reservers; the confirmed-count
// check that follows therefore always sees every committed reservation. The
// bump is a plain UPDATE on purpose: it serialises on both Postgres and
// SQLite, unlike SELECT ... FOR UPDATE.
func Reserve(db *gorm.DB, eventID uuid.UUID, req ReserveRequest) (*models.Reservation, error) {
	var reservation models.Reservation

	err := db.Transaction(func(tx *gorm.DB) error {
		locked := tx.Model(&models.Event{}).
			Where("id = ?", eventID).
			UpdateColumn("lock_version", gorm.Expr("lock_version + 1"))
		if locked.Error != nil {
			return locked.Error
		}
		if locked.RowsAffected == 0 {
			return ErrNotFound
		}

		var event models.Event
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			return err
		}

		var confirmed int64
		if err := tx.Model(&models.Reservation{}).
			Where("event_id = ? AND status = ?", eventID, models.ReservationConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}
		if confirmed >= int64(event.Capacity) {
			return ErrSoldOut
		}

		reservation = models.Reservation{
			EventID:          eventID,
			UserName:         req.UserName,
			UserEmail:        strings.ToLower(strings.TrimSpace(req.UserEmail)),
			UserPhone:        req.UserPhone,
			Status:           models.ReservationConfirmed,
			PaymentStatus:    models.PaymentCompleted,
			PaymentAmount:    req.PaymentAmount,
			PaymentReference: req.PaymentReference,
			TicketID:         NewTicketID(),
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}

		note := models.ReservationNote{
			ReservationID: reservation.ID,
			Actor:         reservation.UserEmail,
			Action:        models.NoteReserved,
			Reason:        req.Notes,
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByReference returns the reservation already written for a payment
// reference, if any. Used to make the reservation write idempotent when a
// client retries after a successful payment.
func FindByReference(db *gorm.DB, reference string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := db.Preload("Event").Preload("Notes").
		First(&reservation, "payment_reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

// FindByTicket looks a reservation up by ticket id, guarded by the holder's
// email address.
func FindByTicket(db *gorm.DB, ticketID, email string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := db.Preload("Event").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&reservation, "ticket_id = ? AND user_email = ?",
			ticketID, strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

// Cancel moves a confirmed reservation to cancelled and appends the reason
// to the audit trail. Cancelled is terminal: nothing in this package moves a
// reservation back to confirmed. No counter is decremented — available
// spots are recomputed from live counts, so the seat frees itself on the
// next catalog read.
func Cancel(db *gorm.DB, ticketID, email, reason string) (*models.Reservation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	reservation, err := FindByTicket(db, ticketID, email)
	if err != nil {
		return nil, err
	}
	if reservation.Status == models.ReservationCancelled {
		return nil, ErrAlreadyCancelled
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(reservation).
			Update("status", models.ReservationCancelled).Error; err != nil {
			return err
		}
		note := models.ReservationNote{
			ReservationID: reservation.ID,
			Actor:         reservation.UserEmail,
			Action:        models.NoteCancelled,
			Reason:        reason,
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		return nil, err
	}
	reservation.Status = models.ReservationCancelled
	return reservation, nil
}

// RequestRefund flags a paid, completed reservation for a manual refund.
// The reservation itself stays confirmed and attendable unless separately
// cancelled; only payment_status changes, and only once.
func RequestRefund(db *gorm.DB, ticketID, email, reason string) (*models.Reservation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	reservation, err := FindByTicket(db, ticketID, email)
	if err != nil {
		return nil, err
	}
	if reservation.PaymentStatus != models.PaymentCompleted || reservation.PaymentAmount == 0 {
		return nil, ErrRefundNotAllowed
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(reservation).
			Update("payment_status", models.PaymentRefundRequested).Error; err != nil {
			return err
		}
		note := models.ReservationNote{
			ReservationID: reservation.ID,
			Actor:         reservation.UserEmail,
			Action:        models.NoteRefundRequested,
			Reason:        reason,
		}
		return tx.Create(&note).Error
	})
	if err != nil {
		return nil, err
	}
	reservation.PaymentStatus = models.PaymentRefundRequested
	return reservation, nil
}

// ConfirmedCounts returns confirmed-reservation totals grouped by event.
func ConfirmedCounts(db *gorm.DB) (map[uuid.UUID]int, error) {
	type countRow struct {
		EventID uuid.UUID
		Total   int64
	}
	var rows []countRow
	err := db.Model(&models.Reservation{}).
		Select("event_id, count(*) as total").
		Where("status = ?", models.ReservationConfirmed).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.EventID] = int(row.Total)
	}
	return counts, nil
}

// AvailableSpots derives the advisory spot count shown in the catalog.
// Floored at zero so an overbooked event reads as full, not negative.
func AvailableSpots(capacity, confirmed int) int {
	if spots := capacity - confirmed; spots > 0 {
		return spots
	}
	return 0
}

// RecordReconciliation persists the trace of a captured payment whose
// reservation insert failed, keyed by the payment reference so support can
// match it against the gateway dashboard. Safe to call twice for the same
// reference; the unique index makes the second write a no-op error the
// caller may ignore.
func RecordReconciliation(db *gorm.DB, reference string, eventID uuid.UUID, email string, amount int) error {
	rec := models.PaymentReconciliation{
		PaymentReference: reference,
		EventID:          eventID,
		UserEmail:        strings.ToLower(strings.TrimSpace(email)),
		Amount:           amount,
	}
	return db.Create(&rec).Error
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/booking"
	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
	"github.com/intellectualintimacy/backend/internal/payments"
)

type CheckoutRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateCheckout initializes a gateway transaction for a paid event and
// returns the popup parameters. The reservation itself is only written once
// the client comes back with the reference and it verifies.
func CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ?", c.Param("id")).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	if event.IsFree {
		helpers.RespondWithError(c, http.StatusBadRequest, "This event is free; reserve it directly.")
		return
	}

	gateway := middleware.GetPaystack(c)
	if gateway == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}

	session, err := gateway.Initialize(c.Request.Context(), payments.InitializeRequest{
		Email:    req.Email,
		Amount:   event.Price,
		Currency: "ZAR",
		Metadata: map[string]interface{}{
			"event_id":   event.ID.String(),
			"event":      event.Title,
			"payer_name": req.Name,
		},
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Could not start checkout. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_url": session.AuthorizationURL,
		"access_code":       session.AccessCode,
		"reference":         session.Reference,
	})
}

type ReservationRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
	// PaymentReference comes from the checkout popup; required for paid
	// events, ignored for free ones.
	PaymentReference string `json:"payment_reference"`
}

// CreateReservation writes a confirmed reservation. Free events skip the
// gateway entirely; paid events require a verified payment reference. A
// captured payment whose insert fails leaves a reconciliation record and a
// distinct support error instead of silently losing the money trail.
func CreateReservation(c *gin.Context) {
	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var event models.Event
	if err := gormDB.Where("id = ?", c.Param("id")).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	reserveReq := booking.ReserveRequest{
		UserName:  req.Name,
		UserEmail: req.Email,
		UserPhone: req.Phone,
		Notes:     req.Notes,
	}

	if !event.IsFree {
		reference := strings.TrimSpace(req.PaymentReference)
		if reference == "" {
			helpers.RespondWithError(c, http.StatusBadRequest, "Payment reference is required for paid events.")
			return
		}

		// Retried submission after a successful payment: hand back the
		// reservation already written for this reference.
		if existing, err := booking.FindByReference(gormDB, reference); err == nil &&
			strings.EqualFold(existing.UserEmail, req.Email) {
			ticket := booking.BuildTicket(existing, &existing.Event)
			c.JSON(http.StatusOK, gin.H{
				"message":     "Reservation already recorded for this payment.",
				"reservation": reservationResponse(existing),
				"ticket":      ticket,
			})
			return
		}

		gateway := middleware.GetPaystack(c)
		if gateway == nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
			return
		}

		verification, err := gateway.Verify(c.Request.Context(), reference)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadGateway, "Could not verify your payment. Please try again.")
			return
		}
		if !verification.Succeeded() {
			helpers.RespondWithError(c, http.StatusPaymentRequired, "Payment was not completed. Please try again.")
			return
		}
		if verification.Amount != event.Price || !strings.EqualFold(verification.Email, req.Email) {
			helpers.RespondWithError(c, http.StatusPaymentRequired, "Payment details do not match this reservation.")
			return
		}

		reserveReq.PaymentAmount = event.Price
		reserveReq.PaymentReference = &reference

		reservation, err := booking.Reserve(gormDB, event.ID, reserveReq)
		if err != nil {
			// Money has been captured but no reservation exists. Leave a
			// reconciliation trail and tell the user exactly what to quote.
			logrus.WithFields(logrus.Fields{
				"reference": reference,
				"event_id":  event.ID,
				"email":     req.Email,
			}).WithError(err).Error("reservation insert failed after captured payment")

			if recErr := booking.RecordReconciliation(gormDB, reference, event.ID, req.Email, event.Price); recErr != nil {
				logrus.WithError(recErr).Error("failed to record payment reconciliation")
			}

			if errors.Is(err, booking.ErrSoldOut) {
				helpers.RespondWithError(c, http.StatusConflict,
					fmt.Sprintf("The event sold out while your payment was processing. Contact support with reference %s for a refund.", reference))
				return
			}
			helpers.RespondWithError(c, http.StatusInternalServerError,
				fmt.Sprintf("Your payment went through but the reservation could not be recorded. Contact support with reference %s.", reference))
			return
		}

		respondWithReservation(c, reservation, &event)
		return
	}

	reservation, err := booking.Reserve(gormDB, event.ID, reserveReq)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrSoldOut):
			helpers.RespondWithError(c, http.StatusConflict, "This event is sold out.")
		case errors.Is(err, booking.ErrNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create reservation.")
		}
		return
	}

	respondWithReservation(c, reservation, &event)
}

func respondWithReservation(c *gin.Context, reservation *models.Reservation, event *models.Event) {
	ticket := booking.BuildTicket(reservation, event)
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Reservation confirmed.",
		"reservation": reservationResponse(reservation),
		"ticket":      ticket,
	})
}

type NoteResponse struct {
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type ReservationResponse struct {
	TicketID         string         `json:"ticket_id"`
	EventID          string         `json:"event_id"`
	UserName         string         `json:"user_name"`
	UserEmail        string         `json:"user_email"`
	UserPhone        string         `json:"user_phone,omitempty"`
	Status           string         `json:"status"`
	PaymentStatus    string         `json:"payment_status"`
	PaymentAmount    int            `json:"payment_amount"`
	PaymentReference *string        `json:"payment_reference,omitempty"`
	Notes            []NoteResponse `json:"notes,omitempty"`
	CreatedAt        string         `json:"created_at"`
}

func reservationResponse(reservation *models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		TicketID:         reservation.TicketID,
		EventID:          reservation.EventID.String(),
		UserName:         reservation.UserName,
		UserEmail:        reservation.UserEmail,
		UserPhone:        reservation.UserPhone,
		Status:           string(reservation.Status),
		PaymentStatus:    string(reservation.PaymentStatus),
		PaymentAmount:    reservation.PaymentAmount,
		PaymentReference: reservation.PaymentReference,
		CreatedAt:        reservation.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, note := range reservation.Notes {
		resp.Notes = append(resp.Notes, NoteResponse{
			Actor:     note.Actor,
			Action:    string(note.Action),
			Reason:    note.Reason,
			CreatedAt: note.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return resp
}

func GetReservation(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	email := c.Query("email")
	if email == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email is required.")
		return
	}

	reservation, err := booking.FindByTicket(gormDB, c.Param("ticketId"), email)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Reservation not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving reservation.")
		return
	}

	resp := gin.H{"reservation": reservationResponse(reservation)}
	if reservation.Status == models.ReservationConfirmed {
		resp["ticket"] = booking.BuildTicket(reservation, &reservation.Event)
	}
	c.JSON(http.StatusOK, resp)
}

type LifecycleRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Reason string `json:"reason" binding:"required"`
}

func CancelReservation(c *gin.Context) {
	var req LifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email and a cancellation reason are required.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	reservation, err := booking.Cancel(gormDB, c.Param("ticketId"), req.Email, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Reservation not found.")
		case errors.Is(err, booking.ErrAlreadyCancelled):
			helpers.RespondWithError(c, http.StatusConflict, "Reservation is already cancelled.")
		case errors.Is(err, booking.ErrReasonRequired):
			helpers.RespondWithError(c, http.StatusBadRequest, "A cancellation reason is required.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel reservation.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Reservation cancelled.",
		"reservation": reservationResponse(reservation),
	})
}

func RequestRefund(c *gin.Context) {
	var req LifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email and a refund reason are required.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	reservation, err := booking.RequestRefund(gormDB, c.Param("ticketId"), req.Email, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Reservation not found.")
		case errors.Is(err, booking.ErrRefundNotAllowed):
			helpers.RespondWithError(c, http.StatusConflict, "A refund cannot be requested for this reservation.")
		case errors.Is(err, booking.ErrReasonRequired):
			helpers.RespondWithError(c, http.StatusBadRequest, "A refund reason is required.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to request refund.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Refund requested. Our team will process it manually.",
		"reservation": reservationResponse(reservation),
	})
}

// ListReservations is the admin view, filterable by event and status.
func ListReservations(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	query := gormDB.Model(&models.Reservation{}).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
	if eventID := c.Query("event_id"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reservations []models.Reservation
	if err := query.Order("created_at DESC").Find(&reservations).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving reservations.")
		return
	}

	responses := make([]ReservationResponse, 0, len(reservations))
	for i := range reservations {
		responses = append(responses, reservationResponse(&reservations[i]))
	}
	c.JSON(http.StatusOK, gin.H{"reservations": responses})
}

// ListReconciliations surfaces captured payments that never became
// reservations, for manual follow-up.
func ListReconciliations(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var records []models.PaymentReconciliation
	if err := gormDB.Where("resolved = ?", false).Order("created_at ASC").Find(&records).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving reconciliations.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciliations": records})
}

func ResolveReconciliation(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	result := gormDB.Model(&models.PaymentReconciliation{}).
		Where("id = ?", c.Param("id")).
		Update("resolved", true)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve reconciliation.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Reconciliation not found.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reconciliation resolved."})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intellectualintimacy/backend/internal/booking"
	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
)

// ticketFor resolves the reservation behind a ticket download and enforces
// the cancelled-reservation guard shared by the QR and PDF endpoints.
func ticketFor(c *gin.Context) (*models.Reservation, bool) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, false
	}

	email := c.Query("email")
	if email == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email is required.")
		return nil, false
	}

	reservation, err := booking.FindByTicket(gormDB, c.Param("ticketId"), email)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Reservation not found.")
			return nil, false
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving reservation.")
		return nil, false
	}

	if reservation.Status == models.ReservationCancelled {
		helpers.RespondWithError(c, http.StatusGone, "This reservation has been cancelled; its ticket is no longer valid.")
		return nil, false
	}
	return reservation, true
}

// GenerateTicketQR serves the ticket QR code as a PNG. An encoding failure
// degrades to an error payload; the ticket data itself stays retrievable
// through the reservation lookup.
func GenerateTicketQR(c *gin.Context) {
	reservation, ok := ticketFor(c)
	if !ok {
		return
	}

	ticket := booking.BuildTicket(reservation, &reservation.Event)
	png, err := ticket.QRCode()
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "QR code is unavailable for this ticket right now.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// DownloadTicketPDF serves the printable ticket document.
func DownloadTicketPDF(c *gin.Context) {
	reservation, ok := ticketFor(c)
	if !ok {
		return
	}

	ticket := booking.BuildTicket(reservation, &reservation.Event)
	pdf, err := ticket.PDF(&reservation.Event)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket document is unavailable right now.")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", ticket.TicketID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

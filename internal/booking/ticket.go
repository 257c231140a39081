package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/intellectualintimacy/backend/internal/models"
)

// Ticket is derived from a reservation and its event; it is never persisted.
// ValidatedAt is always null: there is no check-in subsystem, the field
// exists so a future scanner has somewhere to write.
type Ticket struct {
	TicketID    string     `json:"ticket_id"`
	EventID     string     `json:"event_id"`
	EventTitle  string     `json:"event_title"`
	UserName    string     `json:"user_name"`
	UserEmail   string     `json:"user_email"`
	Date        string     `json:"date"`
	Location    string     `json:"location"`
	ValidatedAt *time.Time `json:"validated_at"`
}

// BuildTicket derives the presentational ticket value. Rendering the same
// reservation twice always yields the same payload.
func BuildTicket(reservation *models.Reservation, event *models.Event) Ticket {
	return Ticket{
		TicketID:   reservation.TicketID,
		EventID:    event.ID.String(),
		EventTitle: event.Title,
		UserName:   reservation.UserName,
		UserEmail:  reservation.UserEmail,
		Date:       event.Date.Format("2006-01-02"),
		Location:   event.Location,
	}
}

// Payload is the JSON blob the QR code encodes.
func (t Ticket) Payload() ([]byte, error) {
	return json.Marshal(t)
}

// QRCode renders the ticket payload as a PNG.
func (t Ticket) QRCode() ([]byte, error) {
	payload, err := t.Payload()
	if err != nil {
		return nil, fmt.Errorf("encode ticket payload: %w", err)
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}
	return png, nil
}

// PDF renders a downloadable one-page ticket with the QR code embedded.
// QR encoding failure degrades to a ticket without the code rather than
// failing the export.
func (t Ticket) PDF(event *models.Event) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A5", "")
	pdf.SetTitle("Intellectual Intimacy Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Intellectual Intimacy", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, t.EventTitle, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Attendee", t.UserName},
		{"Email", t.UserEmail},
		{"Date", t.Date},
		{"Time", fmt.Sprintf("%s - %s", event.StartTime, event.EndTime)},
		{"Location", t.Location},
		{"Ticket", t.TicketID},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(30, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	if png, err := t.QRCode(); err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("ticket-qr", 155, 35, 40, 40, false, opts, 0, "")
	}

	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Present this ticket at the door.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

package booking

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTicketIsDeterministic(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{UserName: "Naledi M", UserEmail: "naledi@example.com"})
	require.NoError(t, err)

	first, err := BuildTicket(reservation, event).Payload()
	require.NoError(t, err)
	second, err := BuildTicket(reservation, event).Payload()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(first, &payload))
	assert.Equal(t, reservation.TicketID, payload["ticket_id"])
	assert.Equal(t, event.ID.String(), payload["event_id"])
	assert.Equal(t, event.Title, payload["event_title"])
	assert.Equal(t, "Naledi M", payload["user_name"])
	assert.Equal(t, "naledi@example.com", payload["user_email"])
	assert.Equal(t, event.Location, payload["location"])

	// validated_at is present and always null: no check-in subsystem exists
	validatedAt, ok := payload["validated_at"]
	require.True(t, ok)
	assert.Nil(t, validatedAt)
}

func TestTicketQRCode(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{UserName: "A", UserEmail: "a@example.com"})
	require.NoError(t, err)

	png, err := BuildTicket(reservation, event).QRCode()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestTicketPDF(t *testing.T) {
	db := setupDB(t)
	event := createEvent(t, db, 5, true, 0)

	reservation, err := Reserve(db, event.ID, ReserveRequest{UserName: "A", UserEmail: "a@example.com"})
	require.NoError(t, err)

	pdf, err := BuildTicket(reservation, event).PDF(event)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

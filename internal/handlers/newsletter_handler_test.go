package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellectualintimacy/backend/internal/models"
)

func TestSubscribeIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(db, &fakeGateway{})

	w := doJSON(r, http.MethodPost, "/v1/newsletter/subscribe", gin.H{"email": "Naledi@Example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/newsletter/subscribe", gin.H{"email": "naledi@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Subscriber{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var subscriber models.Subscriber
	require.NoError(t, db.First(&subscriber).Error)
	assert.Equal(t, "naledi@example.com", subscriber.Email)
	assert.True(t, subscriber.Active)
}

func TestUnsubscribeAndResubscribe(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(db, &fakeGateway{})

	w := doJSON(r, http.MethodPost, "/v1/newsletter/unsubscribe", gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/v1/newsletter/subscribe", gin.H{"email": "a@example.com"}).Code)
	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/v1/newsletter/unsubscribe", gin.H{"email": "a@example.com"}).Code)

	var subscriber models.Subscriber
	require.NoError(t, db.First(&subscriber, "email = ?", "a@example.com").Error)
	assert.False(t, subscriber.Active)

	require.Equal(t, http.StatusOK,
		doJSON(r, http.MethodPost, "/v1/newsletter/subscribe", gin.H{"email": "a@example.com"}).Code)
	require.NoError(t, db.First(&subscriber, "email = ?", "a@example.com").Error)
	assert.True(t, subscriber.Active)
}

func TestSubscribeRejectsBadEmail(t *testing.T) {
	db := setupDB(t)
	r := setupRouter(db, &fakeGateway{})

	w := doJSON(r, http.MethodPost, "/v1/newsletter/subscribe", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

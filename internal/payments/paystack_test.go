package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "naledi@example.com", body["email"])
		assert.Equal(t, float64(25000), body["amount"])
		assert.Equal(t, "ZAR", body["currency"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         "ps_ref_42",
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_secret", server.URL)
	session, err := client.Initialize(context.Background(), InitializeRequest{
		Email:  "naledi@example.com",
		Amount: 25000,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc123", session.AuthorizationURL)
	assert.Equal(t, "abc123", session.AccessCode)
	assert.Equal(t, "ps_ref_42", session.Reference)
}

func TestVerifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ps_ref_42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]interface{}{
				"status":    "success",
				"reference": "ps_ref_42",
				"amount":    25000,
				"currency":  "ZAR",
				"paid_at":   "2026-03-01T18:00:00.000Z",
				"customer":  map[string]interface{}{"email": "naledi@example.com"},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_secret", server.URL)
	verification, err := client.Verify(context.Background(), "ps_ref_42")
	require.NoError(t, err)
	assert.True(t, verification.Succeeded())
	assert.Equal(t, 25000, verification.Amount)
	assert.Equal(t, "naledi@example.com", verification.Email)
}

func TestVerifyAbandoned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]interface{}{
				"status":    "abandoned",
				"reference": "ps_ref_43",
				"amount":    25000,
				"currency":  "ZAR",
				"customer":  map[string]interface{}{"email": "naledi@example.com"},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_secret", server.URL)
	verification, err := client.Verify(context.Background(), "ps_ref_43")
	require.NoError(t, err)
	assert.False(t, verification.Succeeded())
}

func TestVerifyUnknownReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Transaction reference not found",
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk_test_secret", server.URL)
	_, err := client.Verify(context.Background(), "ps_ref_missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestValidateWebhookSignature(t *testing.T) {
	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"ps_ref_42"}}`)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, ValidateWebhookSignature(secret, body, signature))
	assert.False(t, ValidateWebhookSignature(secret, body, "deadbeef"))
	assert.False(t, ValidateWebhookSignature("wrong_secret", body, signature))
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ps_ref_42","amount":25000,"currency":"ZAR","customer":{"email":"naledi@example.com"}}}`)

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "charge.success", event.Event)
	assert.Equal(t, "ps_ref_42", event.Data.Reference)
	assert.Equal(t, 25000, event.Data.Amount)
	assert.Equal(t, "naledi@example.com", event.Data.Customer.Email)
}

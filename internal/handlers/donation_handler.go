package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
	"github.com/intellectualintimacy/backend/internal/payments"
)

type DonationRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	// Amount is in ZAR cents.
	Amount int    `json:"amount" binding:"required,min=100"`
	Kind   string `json:"kind"`
}

// CreateDonation initializes a gateway transaction and records a pending
// donation keyed by the returned reference. The webhook (or the explicit
// verify endpoint) completes it.
func CreateDonation(c *gin.Context) {
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = models.DonationKindOnce
	}
	if kind != models.DonationKindOnce && kind != models.DonationKindSponsorship {
		helpers.RespondWithError(c, http.StatusBadRequest, "Kind must be donation or sponsorship.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	gateway := middleware.GetPaystack(c)
	if gateway == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}

	session, err := gateway.Initialize(c.Request.Context(), payments.InitializeRequest{
		Email:    req.Email,
		Amount:   req.Amount,
		Currency: "ZAR",
		Metadata: map[string]interface{}{
			"kind":       kind,
			"donor_name": req.Name,
		},
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Could not start checkout. Please try again.")
		return
	}

	donation := models.Donation{
		DonorName:        req.Name,
		Email:            req.Email,
		Amount:           req.Amount,
		Currency:         "ZAR",
		Kind:             kind,
		PaymentReference: session.Reference,
		Status:           models.DonationPending,
	}
	if err := gormDB.Create(&donation).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record donation.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_url": session.AuthorizationURL,
		"access_code":       session.AccessCode,
		"reference":         session.Reference,
	})
}

// VerifyDonation is the fallback for clients that return from the popup
// before the webhook lands.
func VerifyDonation(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	gateway := middleware.GetPaystack(c)
	if gateway == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not configured.")
		return
	}

	reference := c.Param("reference")

	var donation models.Donation
	if err := gormDB.Where("payment_reference = ?", reference).First(&donation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Donation not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving donation.")
		return
	}

	if donation.Status == models.DonationCompleted {
		c.JSON(http.StatusOK, gin.H{"status": donation.Status})
		return
	}

	verification, err := gateway.Verify(c.Request.Context(), reference)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Could not verify your payment. Please try again.")
		return
	}
	if !verification.Succeeded() {
		c.JSON(http.StatusOK, gin.H{"status": donation.Status})
		return
	}

	if err := gormDB.Model(&donation).Update("status", models.DonationCompleted).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update donation.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.DonationCompleted})
}

// PaystackWebhook handles charge notifications. Signature failures are
// rejected without touching state; an unknown reference is acknowledged so
// the gateway stops retrying.
func PaystackWebhook(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Unable to read webhook body.")
			return
		}

		signature := c.GetHeader("x-paystack-signature")
		if !payments.ValidateWebhookSignature(secretKey, body, signature) {
			logrus.Warn("rejected paystack webhook with bad signature")
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid webhook signature.")
			return
		}

		event, err := payments.ParseWebhook(body)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Unable to parse webhook payload.")
			return
		}

		if event.Event != "charge.success" {
			c.JSON(http.StatusOK, gin.H{"message": "Ignored."})
			return
		}

		gormDB := middleware.GetDB(c)
		if gormDB == nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
			return
		}

		reference := event.Data.Reference

		if err := gormDB.Model(&models.Donation{}).
			Where("payment_reference = ? AND status = ?", reference, models.DonationPending).
			Update("status", models.DonationCompleted).Error; err != nil {
			logrus.WithError(err).WithField("reference", reference).Error("webhook: donation update failed")
		}

		// A charge.success for a reference that sits in the reconciliation
		// queue confirms the gateway side is settled. Support still decides
		// whether to refund or re-book, so the row stays unresolved; the log
		// line ties the webhook to it.
		var pending int64
		if err := gormDB.Model(&models.PaymentReconciliation{}).
			Where("payment_reference = ? AND resolved = ?", reference, false).
			Count(&pending).Error; err == nil && pending > 0 {
			logrus.WithField("reference", reference).
				Warn("webhook: charge confirmed for a payment awaiting reconciliation")
		}

		c.JSON(http.StatusOK, gin.H{"message": "Processed."})
	}
}

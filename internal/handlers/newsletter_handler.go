package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
)

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Subscribe adds an email to the newsletter list. Subscribing twice is fine:
// an inactive subscription is reactivated, an active one is acknowledged.
func Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "A valid email address is required.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var subscriber models.Subscriber
	err := gormDB.Where("email = ?", email).First(&subscriber).Error
	switch {
	case err == nil:
		if !subscriber.Active {
			if err := gormDB.Model(&subscriber).Update("active", true).Error; err != nil {
				helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to subscribe.")
				return
			}
		}
	case err == gorm.ErrRecordNotFound:
		subscriber = models.Subscriber{Email: email, Active: true}
		if err := gormDB.Create(&subscriber).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to subscribe.")
			return
		}
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to subscribe.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You're on the list."})
}

func Unsubscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "A valid email address is required.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	result := gormDB.Model(&models.Subscriber{}).Where("email = ?", email).Update("active", false)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to unsubscribe.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Email is not subscribed.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You've been unsubscribed."})
}

// ListSubscribers is the admin export of active newsletter subscribers.
func ListSubscribers(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var subscribers []models.Subscriber
	if err := gormDB.Where("active = ?", true).Order("created_at ASC").Find(&subscribers).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving subscribers.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": subscribers})
}

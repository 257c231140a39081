package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
)

func ListTestimonials(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var testimonials []models.Testimonial
	if err := gormDB.Where("status = ?", models.ModerationApproved).
		Order("created_at DESC").Find(&testimonials).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving testimonials.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"testimonials": testimonials})
}

type TestimonialRequest struct {
	Author string `json:"author" binding:"required"`
	Role   string `json:"role"`
	Body   string `json:"body" binding:"required"`
}

// CreateTestimonial files a testimonial for moderation, same flow as blog
// comments.
func CreateTestimonial(c *gin.Context) {
	var req TestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	testimonial := models.Testimonial{
		Author: req.Author,
		Role:   req.Role,
		Body:   req.Body,
		Status: models.ModerationPending,
	}
	if err := gormDB.Create(&testimonial).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to submit testimonial.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Testimonial submitted for moderation."})
}

func ModerateTestimonial(c *gin.Context) {
	moderate(c, &models.Testimonial{}, "Testimonial")
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
)

func ListPosts(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var posts []models.Post
	if err := gormDB.Where("published = ?", true).Order("created_at DESC").Find(&posts).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving posts.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns a published post with its approved comments only.
func GetPost(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var post models.Post
	err := gormDB.
		Preload("Comments", "status = ?", models.ModerationApproved).
		Where("slug = ? AND published = ?", c.Param("slug"), true).
		First(&post).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Post not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving post.")
		return
	}

	c.JSON(http.StatusOK, post)
}

type CommentRequest struct {
	AuthorName  string `json:"author_name" binding:"required"`
	AuthorEmail string `json:"author_email" binding:"required,email"`
	Body        string `json:"body" binding:"required"`
}

// CreateComment files a comment for moderation. It is not visible until an
// administrator approves it.
func CreateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var post models.Post
	if err := gormDB.Where("slug = ? AND published = ?", c.Param("slug"), true).First(&post).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Post not found.")
		return
	}

	comment := models.Comment{
		PostID:      post.ID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Body:        req.Body,
		Status:      models.ModerationPending,
	}
	if err := gormDB.Create(&comment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to submit comment.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment submitted for moderation."})
}

type PostRequest struct {
	Title     string `json:"title" binding:"required"`
	Slug      string `json:"slug" binding:"required"`
	Body      string `json:"body" binding:"required"`
	Published bool   `json:"published"`
}

func CreatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	post := models.Post{
		Title:     req.Title,
		Slug:      req.Slug,
		Body:      req.Body,
		Published: req.Published,
	}
	if err := gormDB.Create(&post).Error; err != nil {
		helpers.RespondWithError(c, http.StatusConflict, "Failed to create post. The slug may already be in use.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully.", "post_id": post.ID})
}

func UpdatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var post models.Post
	if err := gormDB.Where("slug = ?", c.Param("slug")).First(&post).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Post not found.")
		return
	}

	post.Title = req.Title
	post.Slug = req.Slug
	post.Body = req.Body
	post.Published = req.Published

	if err := gormDB.Save(&post).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update post.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully.", "post": post})
}

func DeletePost(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	result := gormDB.Where("slug = ?", c.Param("slug")).Delete(&models.Post{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete post.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Post not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully."})
}

// ModerateComment approves or rejects a pending comment.
func ModerateComment(c *gin.Context) {
	moderate(c, &models.Comment{}, "Comment")
}

func moderate(c *gin.Context, model interface{}, label string) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var status models.ModerationStatus
	switch c.Param("decision") {
	case "approve":
		status = models.ModerationApproved
	case "reject":
		status = models.ModerationRejected
	default:
		helpers.RespondWithError(c, http.StatusBadRequest, "Decision must be approve or reject.")
		return
	}

	result := gormDB.Model(model).Where("id = ?", c.Param("id")).Update("status", status)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to moderate "+label+".")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, label+" not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": label + " " + string(status) + "."})
}

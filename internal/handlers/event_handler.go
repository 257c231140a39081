package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/booking"
	"github.com/intellectualintimacy/backend/internal/helpers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
)

// EventResponse is an event annotated with the derived spot count. The
// count is advisory: the write-time guard in booking.Reserve is what
// actually enforces capacity.
type EventResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Location       string    `json:"location"`
	Capacity       int       `json:"capacity"`
	Price          int       `json:"price"`
	IsFree         bool      `json:"is_free"`
	Category       string    `json:"category"`
	EventType      string    `json:"event_type"`
	ImagePath      string    `json:"image_path"`
	AvailableSpots int       `json:"available_spots"`
}

func toEventResponse(event models.Event, confirmed int) EventResponse {
	return EventResponse{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Date:           event.Date.Format("2006-01-02"),
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		Location:       event.Location,
		Capacity:       event.Capacity,
		Price:          event.Price,
		IsFree:         event.IsFree,
		Category:       event.Category,
		EventType:      event.EventType,
		ImagePath:      event.ImagePath,
		AvailableSpots: booking.AvailableSpots(event.Capacity, confirmed),
	}
}

// ListEvents returns upcoming events ordered by date, each annotated with
// available_spots. On failure it reports an empty list plus an error message
// so the caller renders an error state instead of crashing.
func ListEvents(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	var events []models.Event
	if err := gormDB.Where("date >= ?", today).Order("date ASC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"events": []EventResponse{},
			"error":  "Unable to load events right now. Please try again.",
		})
		return
	}

	counts, err := booking.ConfirmedCounts(gormDB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"events": []EventResponse{},
			"error":  "Unable to load events right now. Please try again.",
		})
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, toEventResponse(event, counts[event.ID]))
	}

	c.JSON(http.StatusOK, gin.H{"events": responses})
}

func GetEvent(c *gin.Context) {
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

	var confirmed int64
	if err := gormDB.Model(&models.Reservation{}).
		Where("event_id = ? AND status = ?", event.ID, models.ReservationConfirmed).
		Count(&confirmed).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event, int(confirmed)))
}

func parseEventForm(c *gin.Context, event *models.Event) (string, bool) {
	event.Title = c.PostForm("title")
	event.Description = c.PostForm("description")
	event.Location = c.PostForm("location")
	event.Category = c.PostForm("category")

	if event.Title == "" || event.Description == "" || event.Location == "" {
		return "Missing required fields.", false
	}

	date, err := helpers.ParseDate(c.PostForm("date"))
	if err != nil {
		return "Invalid date format.", false
	}
	event.Date = date

	startTime, err := helpers.ParseClock(c.PostForm("start_time"))
	if err != nil {
		return "Invalid start time format.", false
	}
	event.StartTime = startTime

	endTime, err := helpers.ParseClock(c.PostForm("end_time"))
	if err != nil {
		return "Invalid end time format.", false
	}
	event.EndTime = endTime

	capacity, err := helpers.StringToInt(c.PostForm("capacity"))
	if err != nil || capacity < 1 {
		return "Capacity must be a positive integer.", false
	}
	event.Capacity = capacity

	eventType := c.DefaultPostForm("event_type", models.EventTypeInPerson)
	if !models.ValidEventType(eventType) {
		return "Event type must be in-person, virtual or hybrid.", false
	}
	event.EventType = eventType

	event.IsFree = c.PostForm("is_free") == "true"
	if event.IsFree {
		event.Price = 0
	} else {
		price, err := helpers.StringToInt(c.PostForm("price"))
		if err != nil || price <= 0 {
			return "Paid events need a positive price in cents.", false
		}
		event.Price = price
	}

	return "", true
}

func CreateEvent(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var event models.Event
	if msg, ok := parseEventForm(c, &event); !ok {
		helpers.RespondWithError(c, http.StatusBadRequest, msg)
		return
	}

	imageFile, err := c.FormFile("image")
	if err == nil {
		imagePath, err := helpers.UploadFile(c, imageFile, "event_images")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		event.ImagePath = imagePath
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Event created successfully.",
		"event_id": event.ID,
	})
}

func UpdateEvent(c *gin.Context) {
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
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return
	}

	if msg, ok := parseEventForm(c, &event); !ok {
		helpers.RespondWithError(c, http.StatusBadRequest, msg)
		return
	}

	imageFile, err := c.FormFile("image")
	if err == nil {
		imagePath, err := helpers.UploadFile(c, imageFile, "event_images")
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := helpers.DeleteFile(event.ImagePath); err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to replace event image.")
			return
		}
		event.ImagePath = imagePath
	}

	if err := gormDB.Save(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully.",
		"event":   event,
	})
}

// DeleteEvent refuses to remove an event that still has confirmed
// reservations; cancel or migrate them first.
func DeleteEvent(c *gin.Context) {
	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	eventID := c.Param("id")

	var confirmed int64
	if err := gormDB.Model(&models.Reservation{}).
		Where("event_id = ? AND status = ?", eventID, models.ReservationConfirmed).
		Count(&confirmed).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}
	if confirmed > 0 {
		helpers.RespondWithError(c, http.StatusConflict, "Event still has confirmed reservations.")
		return
	}

	result := gormDB.Where("id = ?", eventID).Delete(&models.Event{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully."})
}

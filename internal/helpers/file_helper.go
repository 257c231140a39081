package helpers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
	UploadBasePath   string
}

var DefaultImageUploadConfig = UploadConfig{
	MaxSizeBytes: 5 * 1024 * 1024, // 5MB
	AllowedMimeTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
	UploadBasePath: "./uploads/",
}

// UploadFile stores an uploaded file under a random name and returns its
// path. Used for event images.
func UploadFile(c *gin.Context, fileHeader *multipart.FileHeader, uploadType string, configs ...UploadConfig) (string, error) {
	config := DefaultImageUploadConfig
	if len(configs) > 0 {
		config = configs[0]
	}

	if fileHeader.Size > config.MaxSizeBytes {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	allowed := false
	for _, mimeType := range config.AllowedMimeTypes {
		if contentType == mimeType {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("file type %s is not allowed", contentType)
	}

	uploadDir := filepath.Join(config.UploadBasePath, uploadType)
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	filename := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	destination := filepath.Join(uploadDir, filename)

	if err := c.SaveUploadedFile(fileHeader, destination); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}
	return destination, nil
}

// DeleteFile removes a previously uploaded file, ignoring missing paths.
func DeleteFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

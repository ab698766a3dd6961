package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/forwarder"
)

const sessionHeader = "X-Session-ID"

// RegisterWebhookRoutes registers the upload-and-forward endpoint.
func RegisterWebhookRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	cfg = cfg.withDefaults()

	api.POST("/send-to-webhook", func(c *gin.Context) {
		log := requestLogger(c, cfg.Logger)

		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			sessionID = fmt.Sprintf("session-%d", time.Now().UnixMilli())
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadBytes)
		form, err := c.MultipartForm()
		if err != nil && !errors.Is(err, http.ErrNotMultipart) && !errors.Is(err, http.ErrMissingBoundary) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("read upload: %v", err)})
			return
		}
		var headers []*multipart.FileHeader
		if form != nil {
			headers = form.File["files"]
		}
		if len(headers) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No files provided"})
			return
		}

		files := make([]forwarder.File, 0, len(headers))
		for _, fh := range headers {
			f, err := readUpload(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			files = append(files, f)
		}

		log.Info("forwarding files", zap.String("session_id", sessionID), zap.Int("files", len(files)))
		report := cfg.Forwarder.Forward(c.Request.Context(), sessionID, files)
		if !report.Success {
			log.Warn("some files were rejected", zap.String("session_id", sessionID), zap.Int("failed", len(report.Errors)))
		}
		c.JSON(http.StatusOK, report)
	})
}

func readUpload(fh *multipart.FileHeader) (forwarder.File, error) {
	src, err := fh.Open()
	if err != nil {
		return forwarder.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return forwarder.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return forwarder.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

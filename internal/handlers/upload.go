package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
)

const maxUploadBytes = 10 << 20 // 10MB

// Uploader stores an attachment in the owner's folder and returns its URL.
type Uploader interface {
	UploadFileFromHeader(ctx context.Context, fileHeader *multipart.FileHeader, ownerID string) (string, error)
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

type UploadHandler struct {
	media Uploader
}

// NewUploadHandler accepts a nil uploader when Cloudinary is not configured.
func NewUploadHandler(media Uploader) *UploadHandler {
	return &UploadHandler{media: media}
}

// Upload handles POST /api/uploads with a multipart "file" image.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	file.Close()

	if fileHeader.Size > maxUploadBytes {
		writeMessage(w, http.StatusBadRequest, "File must be at most 10MB")
		return
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		writeMessage(w, http.StatusBadRequest, "Only image uploads are supported")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	ownerID := auth.UserIDFromContext(r.Context())
	url, err := h.media.UploadFileFromHeader(ctx, fileHeader, ownerID)
	if err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("upload failed")
		writeMessage(w, http.StatusBadGateway, "Failed to upload file")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}

package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"grow-sync/internal/middleware"
	"grow-sync/internal/service"
	"grow-sync/pkg/response"
)

type PhotoHandler struct {
	photoService *service.PhotoService
	maxSize      int64
}

func NewPhotoHandler(photoService *service.PhotoService, maxSize int64) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		maxSize:      maxSize,
	}
}

// Upload handles POST /photos (multipart field "image") and returns the blob
// key a RecordPhoto row stores in r2_key.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "missing image field")
		return
	}
	defer file.Close()

	key, size, err := h.photoService.Save(header.Filename, file)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, map[string]interface{}{
		"path": key,
		"size": size,
	})
}

// Serve handles GET /photos/{key}. Photo keys are immutable so the blob is
// cacheable forever.
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	path, err := h.photoService.Path(key)
	if err != nil {
		response.NotFound(w, "photo not found")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}

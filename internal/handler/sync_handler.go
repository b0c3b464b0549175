package handler

import (
	"encoding/json"
	"net/http"

	"grow-sync/internal/domain"
	"grow-sync/internal/middleware"
	"grow-sync/internal/service"
	"grow-sync/pkg/response"
)

type SyncHandler struct {
	syncService *service.SyncService
}

func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Pull handles POST /sync/pull. The since watermark may be empty or absent,
// which means "everything since epoch" (a fresh device).
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req domain.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	res, err := h.syncService.Pull(&req)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	// Raw body, not the success envelope: the pull response shape is shared
	// with the mobile client's sync implementation.
	response.Raw(w, http.StatusOK, res)
}

// Push handles POST /sync/push.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req domain.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	deviceID := r.Header.Get("X-Device-ID")

	res, err := h.syncService.Push(userID, deviceID, &req)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Raw(w, http.StatusOK, res)
}

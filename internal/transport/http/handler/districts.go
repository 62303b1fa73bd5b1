package handler

import (
	"net/http"

	"github.com/go-event-notifier/internal/application/notification"
)

// DistrictHandler serves the district table used for matching.
type DistrictHandler struct {
	svc notification.Service
}

func NewDistrictHandler(svc notification.Service) *DistrictHandler {
	return &DistrictHandler{svc: svc}
}

func (h *DistrictHandler) List(w http.ResponseWriter, _ *http.Request) {
	t := h.svc.Districts()
	writeJSON(w, http.StatusOK, DistrictsEnvelope{Version: t.Version, Names: t.Names(), Districts: t.Districts})
}

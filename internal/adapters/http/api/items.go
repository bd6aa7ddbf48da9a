package api

import (
	"errors"
	"net/http"

	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/pkg/logger"
)

// ItemsHandler handles item reads and view recording.
type ItemsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps Dependencies, l logger.Logger) *ItemsHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &ItemsHandler{deps: deps, logger: l}
}

// HandleGetItem handles GET /items/{id}. A successful read counts as a view.
func (h *ItemsHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_item"
	id, ok := model.ParseItemID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	it, err := h.deps.GetItem(r.Context(), id)
	switch {
	case errors.Is(err, model.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	case err != nil:
		h.logger.Error(r.Context(), "get item failed",
			logger.Int64("item_id", int64(id)),
			logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.deps.RecordView(r.Context(), id)
	writeJSON(w, http.StatusOK, it)
}

// HandlePostView handles POST /items/{id}/views.
func (h *ItemsHandler) HandlePostView(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_view"
	id, ok := model.ParseItemID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	h.deps.RecordView(r.Context(), id)
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "recorded"})
}

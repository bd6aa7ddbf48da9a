package api

import (
	"errors"
	"net/http"

	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/pkg/logger"
)

// RankHandler serves an item's position in the hot ordering.
type RankHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps Dependencies, l logger.Logger) *RankHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &RankHandler{deps: deps, logger: l}
}

// HandleGetRank handles GET /items/{id}/rank. Reading a rank does not count
// as a view.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	id, ok := model.ParseItemID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rank, err := h.deps.GetRank(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rank)
	case errors.Is(err, model.ErrItemNotRanked):
		writeError(w, http.StatusNotFound, "not_ranked", NewKind(op, ErrNotRanked))
	case errors.Is(err, model.ErrScoreStoreUnavailable):
		h.logger.Warn(r.Context(), "rank lookup failed",
			logger.Int64("item_id", int64(id)),
			logger.Error(WrapKind(op, ErrUnavailable, err)))
		writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
	default:
		h.logger.Error(r.Context(), "rank lookup failed",
			logger.Int64("item_id", int64(id)),
			logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

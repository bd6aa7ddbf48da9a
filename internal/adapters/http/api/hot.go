package api

import (
	"net/http"
	"strconv"

	"github.com/okian/hotrank/internal/domain/model"
)

const (
	headerHotSource   = "X-Hot-Source"
	headerHotDegraded = "X-Hot-Degraded"
)

// HotEntry is one row of GET /hot.
type HotEntry struct {
	Rank  int        `json:"rank"`
	Item  model.Item `json:"item"`
	Score int64      `json:"score"`
}

// HotHandler handles hot list requests.
type HotHandler struct {
	deps         Dependencies
	defaultLimit int
	maxLimit     int
}

// NewHotHandler creates a new hot list handler.
func NewHotHandler(deps Dependencies, defaultLimit, maxLimit int) *HotHandler {
	return &HotHandler{
		deps:         deps,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandleGetHot handles GET /hot?limit=N requests.
func (h *HotHandler) HandleGetHot(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_hot"
	limit := h.defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitTooHigh))
			return
		}
		limit = n
	}

	res := h.deps.GetHotResult(r.Context(), limit)
	out := make([]HotEntry, len(res.Entries))
	for i, e := range res.Entries {
		out[i] = HotEntry{Rank: i + 1, Item: e.Item, Score: e.Score}
	}

	w.Header().Set(headerHotSource, string(res.Source))
	if res.Degraded {
		w.Header().Set(headerHotDegraded, "true")
	}
	writeJSON(w, http.StatusOK, out)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/internal/domain/ranking"
	"github.com/okian/hotrank/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GetItem loads one catalog record. Unknown ids return
	// model.ErrItemNotFound.
	GetItem(ctx context.Context, id model.ItemID) (model.Item, error)

	// RecordView counts one view. It never fails.
	RecordView(ctx context.Context, id model.ItemID)

	// GetHotResult returns the hot list and where its ordering came from.
	GetHotResult(ctx context.Context, limit int) ranking.Result

	// GetRank reports an item's position in the score store. Items without
	// views return model.ErrItemNotRanked.
	GetRank(ctx context.Context, id model.ItemID) (model.ItemRank, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	itemsHandler  *ItemsHandler
	hotHandler    *HotHandler
	rankHandler   *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{
		defaultHotLimit: defaultHotLimit,
		maxHotLimit:     maxHotLimit,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		itemsHandler:  NewItemsHandler(deps, o.logger),
		hotHandler:    NewHotHandler(deps, o.defaultHotLimit, o.maxHotLimit),
		rankHandler:   NewRankHandler(deps, o.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /items/{id}", MetricsMiddleware(s.itemsHandler.HandleGetItem, "items"))
	mux.HandleFunc("POST /items/{id}/views", MetricsMiddleware(s.itemsHandler.HandlePostView, "views"))
	mux.HandleFunc("GET /items/{id}/rank", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET /hot", MetricsMiddleware(s.hotHandler.HandleGetHot, "hot"))
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

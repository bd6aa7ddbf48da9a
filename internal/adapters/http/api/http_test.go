package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/hotrank/internal/adapters/http/api"
	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/internal/domain/ranking"
	"github.com/okian/hotrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	mu        sync.Mutex
	items     map[model.ItemID]model.Item
	getErr    error
	views     []model.ItemID
	hot       ranking.Result
	lastLimit int
	hotCalls  int
	ranks     map[model.ItemID]model.ItemRank
	rankErr   error
}

func newMockDependencies(items ...model.Item) *mockDependencies {
	m := &mockDependencies{items: map[model.ItemID]model.Item{}}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockDependencies) GetItem(_ context.Context, id model.ItemID) (model.Item, error) {
	if m.getErr != nil {
		return model.Item{}, m.getErr
	}
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, model.ErrItemNotFound
	}
	return it, nil
}

func (m *mockDependencies) RecordView(_ context.Context, id model.ItemID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, id)
}

func (m *mockDependencies) GetHotResult(_ context.Context, limit int) ranking.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotCalls++
	m.lastLimit = limit
	return m.hot
}

func (m *mockDependencies) GetRank(_ context.Context, id model.ItemID) (model.ItemRank, error) {
	if m.rankErr != nil {
		return model.ItemRank{}, m.rankErr
	}
	r, ok := m.ranks[id]
	if !ok {
		return model.ItemRank{}, model.ErrItemNotRanked
	}
	return r, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]any {
	return m.stats
}

func newMux(deps api.Dependencies, stats api.StatsProvider, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats, opts...).Register(context.Background(), mux)
	return mux
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.NewDecoder(w.Body).Decode(&body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockDependencies(model.Item{ID: 1, Title: "Alien"})
		stats := &mockStatsProvider{stats: map[string]any{"started": true}}
		mux := newMux(deps, stats)

		Convey("Then health endpoint should be accessible", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should be accessible", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And item endpoint should be accessible", func() {
			w := serve(mux, http.MethodGet, "/items/1")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And rank endpoint should be routed", func() {
			w := serve(mux, http.MethodGet, "/items/1/rank")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_ranked")
		})

		Convey("And hot endpoint should be accessible", func() {
			w := serve(mux, http.MethodGet, "/hot")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And unknown paths should return 404", func() {
			w := serve(mux, http.MethodGet, "/unknown")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods should be rejected", func() {
			w := serve(mux, http.MethodDelete, "/hot")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a nil mux", t, func() {
		server := api.NewServer(newMockDependencies(), nil)

		Convey("Then Register should panic", func() {
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestItemsHandler(t *testing.T) {
	Convey("Given an items handler", t, func() {
		deps := newMockDependencies(model.Item{ID: 7, Title: "Heat", Year: 1995})
		var logs bytes.Buffer
		mux := newMux(deps, nil, api.WithLogger(logger.New(&logs)))

		Convey("When fetching a known item", func() {
			w := serve(mux, http.MethodGet, "/items/7")

			Convey("Then it returns the record and counts a view", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var it model.Item
				So(json.NewDecoder(w.Body).Decode(&it), ShouldBeNil)
				So(it.Title, ShouldEqual, "Heat")
				So(it.Year, ShouldEqual, 1995)
				So(deps.views, ShouldResemble, []model.ItemID{7})
			})
		})

		Convey("When fetching an unknown item", func() {
			w := serve(mux, http.MethodGet, "/items/8")

			Convey("Then it returns 404 and records nothing", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_found")
				So(deps.views, ShouldBeEmpty)
			})
		})

		Convey("When the catalog fails", func() {
			deps.getErr = errors.New("database is locked")
			w := serve(mux, http.MethodGet, "/items/7")

			Convey("Then it returns 500 without the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "internal_error")
				So(body["message"], ShouldEqual, http.StatusText(http.StatusInternalServerError))
				So(body["message"], ShouldNotContainSubstring, "database")
				So(deps.views, ShouldBeEmpty)
			})

			Convey("Then the cause is logged", func() {
				So(logs.String(), ShouldContainSubstring, "database is locked")
			})
		})

		Convey("When the id is not a positive integer", func() {
			for _, target := range []string{"/items/abc", "/items/0", "/items/-3"} {
				w := serve(mux, http.MethodGet, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.views, ShouldBeEmpty)
		})

		Convey("When posting a view", func() {
			w := serve(mux, http.MethodPost, "/items/42/views")

			Convey("Then it is accepted without a catalog lookup", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"status":"recorded"}`)
				So(deps.views, ShouldResemble, []model.ItemID{42})
			})
		})

		Convey("When posting a view for a malformed id", func() {
			w := serve(mux, http.MethodPost, "/items/x/views")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.views, ShouldBeEmpty)
			})
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		deps := newMockDependencies()
		deps.ranks = map[model.ItemID]model.ItemRank{
			5: {ItemID: 5, Rank: 2, Score: 11},
		}
		var logs bytes.Buffer
		mux := newMux(deps, nil, api.WithLogger(logger.New(&logs)))

		Convey("When the item is ranked", func() {
			w := serve(mux, http.MethodGet, "/items/5/rank")

			Convey("Then its position is returned without counting a view", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var r model.ItemRank
				So(json.NewDecoder(w.Body).Decode(&r), ShouldBeNil)
				So(r.ItemID, ShouldEqual, model.ItemID(5))
				So(r.Rank, ShouldEqual, 2)
				So(r.Score, ShouldEqual, int64(11))
				So(deps.views, ShouldBeEmpty)
			})
		})

		Convey("When the item has no views", func() {
			w := serve(mux, http.MethodGet, "/items/6/rank")

			Convey("Then it returns 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_ranked")
			})
		})

		Convey("When the id is malformed", func() {
			w := serve(mux, http.MethodGet, "/items/zero/rank")

			Convey("Then it returns 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the score store is down", func() {
			deps.rankErr = fmt.Errorf("%w: dial tcp 10.0.0.9:6379: i/o timeout", model.ErrScoreStoreUnavailable)
			w := serve(mux, http.MethodGet, "/items/5/rank")

			Convey("Then it returns 503 and logs the cause", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "unavailable")
				So(body["message"], ShouldEqual, http.StatusText(http.StatusServiceUnavailable))
				So(logs.String(), ShouldContainSubstring, "10.0.0.9:6379")
			})
		})

		Convey("When the lookup fails unexpectedly", func() {
			deps.rankErr = errors.New("boom")
			w := serve(mux, http.MethodGet, "/items/5/rank")

			Convey("Then it returns a generic 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["message"], ShouldNotContainSubstring, "boom")
			})
		})
	})
}

func TestHotHandler(t *testing.T) {
	Convey("Given a hot handler backed by the score store", t, func() {
		deps := newMockDependencies()
		deps.hot = ranking.Result{
			Entries: []ranking.Entry{
				{Item: model.Item{ID: 3, Title: "c"}, Score: 9},
				{Item: model.Item{ID: 1, Title: "a"}, Score: 4},
			},
			Source: ranking.SourceScoreStore,
		}
		mux := newMux(deps, nil, api.WithDefaultHotLimit(5), api.WithMaxHotLimit(20))

		Convey("When no limit is given", func() {
			w := serve(mux, http.MethodGet, "/hot")

			Convey("Then the default limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 5)
			})

			Convey("Then entries are ranked from one", func() {
				var out []api.HotEntry
				So(json.NewDecoder(w.Body).Decode(&out), ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				So(out[0].Rank, ShouldEqual, 1)
				So(out[0].Item.ID, ShouldEqual, model.ItemID(3))
				So(out[0].Score, ShouldEqual, int64(9))
				So(out[1].Rank, ShouldEqual, 2)
			})

			Convey("Then the source header is set", func() {
				So(w.Header().Get("X-Hot-Source"), ShouldEqual, "score_store")
				So(w.Header().Get("X-Hot-Degraded"), ShouldEqual, "")
			})
		})

		Convey("When a valid limit is given", func() {
			w := serve(mux, http.MethodGet, "/hot?limit=20")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 20)
		})

		Convey("When the limit is above the maximum", func() {
			w := serve(mux, http.MethodGet, "/hot?limit=21")

			Convey("Then it is rejected before the core is asked", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
				So(deps.hotCalls, ShouldEqual, 0)
			})
		})

		Convey("When the limit is not an integer", func() {
			w := serve(mux, http.MethodGet, "/hot?limit=ten")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
			So(deps.hotCalls, ShouldEqual, 0)
		})

		Convey("When the limit is zero", func() {
			deps.hot = ranking.Result{Entries: []ranking.Entry{}, Source: ranking.SourceNone}
			w := serve(mux, http.MethodGet, "/hot?limit=0")

			Convey("Then an empty list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
				So(deps.lastLimit, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a degraded durable hot list", t, func() {
		deps := newMockDependencies()
		deps.hot = ranking.Result{
			Entries:  []ranking.Entry{{Item: model.Item{ID: 2}, Score: 120}},
			Source:   ranking.SourceDurable,
			Degraded: true,
		}
		w := serve(newMux(deps, nil), http.MethodGet, "/hot")

		Convey("Then the headers describe the fallback", func() {
			So(w.Header().Get("X-Hot-Source"), ShouldEqual, "durable")
			So(w.Header().Get("X-Hot-Degraded"), ShouldEqual, "true")
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get(api.HeaderRequestID)
		}))

		Convey("When the request carries no id", func() {
			w := serve(h, http.MethodGet, "/")

			Convey("Then one is issued and echoed", func() {
				So(len(seen), ShouldEqual, 36)
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, seen)
			})
		})

		Convey("When the request carries an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is kept", func() {
				So(seen, ShouldEqual, "abc-123")
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
			})
		})

		Convey("When the incoming id is oversized", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.HeaderRequestID, strings.Repeat("x", 500))
			h.ServeHTTP(httptest.NewRecorder(), req)

			Convey("Then it is replaced", func() {
				So(len(seen), ShouldEqual, 36)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given an upstream error", t, func() {
		cause := errors.New("boom")

		Convey("Then WrapKind matches both the kind and the cause", func() {
			err := api.WrapKind("api.op", api.ErrNotFound, cause)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found: boom")
		})

		Convey("Then WrapKind without a cause is NewKind", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, nil)
			So(err.Error(), ShouldEqual, "api.op: bad request")
		})
	})
}

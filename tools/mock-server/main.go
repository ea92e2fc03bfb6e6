// Package main implements a mock marketplace API server for local
// development. It serves search pages, item details, user profiles and
// reviews from a JSON fixture, so the poller can run without touching the
// real marketplace.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type fixtureItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"price"`
	User *struct {
		ID string `json:"id"`
	} `json:"user,omitempty"`
	CreationDate int64 `json:"creation_date,omitempty"`
}

// searchResponse mirrors the sectioned wire shape the real search endpoint
// returns.
type searchResponse struct {
	Data struct {
		Section struct {
			Payload struct {
				Items []fixtureItem `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data"`
	Meta struct {
		NextPage string `json:"next_page"`
	} `json:"meta"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/search_items.json", "path to listings fixture")
	pageSize := flag.Int("page-size", 20, "search results per page")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	items, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(items))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", searchHandler(logger, items, *pageSize))
	mux.HandleFunc("GET /item/{id}", itemHandler(logger, items))
	mux.HandleFunc("GET /user/{id}", userHandler(logger))
	mux.HandleFunc("GET /user/{id}/reviews", reviewsHandler(logger))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) ([]fixtureItem, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var items []fixtureItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return items, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func searchHandler(logger *slog.Logger, items []fixtureItem, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keywords := strings.ToLower(r.URL.Query().Get("keywords"))

		// Every keyword must appear in the title or description.
		var matched []fixtureItem
		for _, item := range items {
			text := strings.ToLower(item.Title + " " + item.Description)
			ok := true
			for _, kw := range strings.Fields(keywords) {
				if !strings.Contains(text, kw) {
					ok = false
					break
				}
			}
			if ok {
				matched = append(matched, item)
			}
		}

		// next_page carries the offset of the following page.
		offset := 0
		if tok := r.URL.Query().Get("next_page"); tok != "" {
			if v, err := strconv.Atoi(tok); err == nil && v >= 0 {
				offset = v
			}
		}

		var page []fixtureItem
		next := ""
		if offset < len(matched) {
			end := min(offset+pageSize, len(matched))
			page = matched[offset:end]
			if end < len(matched) {
				next = strconv.Itoa(end)
			}
		}
		if page == nil {
			page = []fixtureItem{}
		}

		var resp searchResponse
		resp.Data.Section.Payload.Items = page
		resp.Meta.NextPage = next
		writeJSON(w, resp)

		logger.Info("search", "keywords", keywords, "matched", len(matched),
			"returned", len(page), "offset", offset, "next_page", next)
	}
}

func itemHandler(logger *slog.Logger, items []fixtureItem) http.HandlerFunc {
	byID := make(map[string]fixtureItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		item, ok := byID[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"error": "item not found"})
			return
		}

		detail := map[string]any{
			"description": map[string]string{"original": item.Description},
			"counters": map[string]int{
				"views":     120,
				"favorites": 7,
			},
		}
		// Items tagged "como nuevo" get a structured condition, so deep
		// fetch has something to verify.
		if strings.Contains(strings.ToLower(item.Description), "como nuevo") {
			detail["type_attributes"] = map[string]any{
				"condition": map[string]string{"value": "as_good_as_new"},
			}
		}
		writeJSON(w, detail)
		logger.Info("item detail", "id", id)
	}
}

func userHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		profile := map[string]any{
			"id":            id,
			"register_date": time.Now().AddDate(-2, 0, 0).UnixMilli(),
		}
		// Deterministic quirks so reputation paths can be exercised locally.
		switch {
		case strings.HasPrefix(id, "scam"):
			profile["scam_reports"] = 3
			profile["register_date"] = time.Now().AddDate(0, 0, -3).UnixMilli()
		case strings.HasPrefix(id, "pro"):
			profile["type"] = "pro"
			profile["badges"] = []string{"TOP_SELLER"}
		}
		writeJSON(w, profile)
		logger.Info("user profile", "id", id)
	}
}

func reviewsHandler(logger *slog.Logger) http.HandlerFunc {
	type review struct {
		Review struct {
			Scoring int `json:"scoring"`
		} `json:"review"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		reviews := make([]review, 3)
		for i, score := range []int{100, 90, 80} {
			reviews[i].Review.Scoring = score
		}
		writeJSON(w, reviews)
		logger.Info("reviews", "id", id)
	}
}

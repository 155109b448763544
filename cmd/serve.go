/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vibe-gigs/internal/finder"
	"github.com/ademuri/vibe-gigs/internal/logging"
)

// Request bodies larger than this are rejected.
const maxBodyBytes = 1 << 20

type ServeConfig struct {
	Finder     FinderConfig
	Addr       string
	RateLimit  int
	RateWindow time.Duration
}

// eventFinder is the part of finder.Finder the API serves.
type eventFinder interface {
	Match(ctx context.Context, req finder.MatchRequest) (*finder.MatchResponse, error)
	SearchArtists(ctx context.Context, req finder.SearchRequest) (*finder.SearchResponse, error)
	ExtractFromPlaylists(ctx context.Context, req finder.ExtractRequest) (*finder.ExtractResponse, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the matching API over HTTP",
	Long: `Endpoints:
  POST /api/user/matches     nearest events that match your taste
  POST /api/events/search    upcoming events for a list of artists
  POST /api/artists/extract  artists in a set of playlists
  GET  /healthz`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := ServeConfig{
			Finder:     finderConfig(cmd),
			Addr:       viper.GetString("serve.addr"),
			RateLimit:  viper.GetInt("serve.rate_limit"),
			RateWindow: viper.GetDuration("serve.rate_window"),
		}
		err := serve(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSourceFlags(serveCmd)

	var addr string
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))

	var rateLimit int
	serveCmd.Flags().IntVar(&rateLimit, "rate_limit", 30, "Requests allowed per client IP per window, 0 to disable")
	viper.BindPFlag("serve.rate_limit", serveCmd.Flags().Lookup("rate_limit"))

	var rateWindow time.Duration
	serveCmd.Flags().DurationVar(&rateWindow, "rate_window", time.Minute, "Rate limit window")
	viper.BindPFlag("serve.rate_window", serveCmd.Flags().Lookup("rate_window"))
}

func serve(config ServeConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, l, err := newFinder(ctx, config.Finder)
	if err != nil {
		return err
	}
	defer l.Close()

	server := &http.Server{
		Addr:              config.Addr,
		Handler:           newRouter(f, config.RateLimit, config.RateWindow),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", config.Addr).Msg("serving")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRouter(f eventFinder, rateLimit int, window time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(httprate.LimitByIP(rateLimit, window))
		}
		r.Post("/user/matches", handle(f.Match))
		r.Post("/events/search", handle(f.SearchArtists))
		r.Post("/artists/extract", handle(f.ExtractFromPlaylists))
	})
	return r
}

// handle decodes a JSON request, calls fn and encodes its response.
func handle[Req any, Resp any](fn func(context.Context, Req) (*Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			writeError(w, finder.HTTPStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		logging.Error().Err(err).Msg("request failed")
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("writing response")
	}
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

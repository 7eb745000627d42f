package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/photoactive-studio/photoactive/internal/auth"
	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/logging"
	"github.com/photoactive-studio/photoactive/internal/session"
)

//go:embed all:frontend_dist
var frontendFS embed.FS

// CLI flags
var (
	portFlag       int
	modelFlag      string
	historyDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "photoactive-web",
	Short: "Web UI for photograph diagnosis",
	Long: `PhotoActive Web starts a local web server with a visual interface for
diagnosing photographs. Upload or capture a photo, run the analysis, and
browse past diagnoses through your browser.

Examples:
  photoactive-web
  photoactive-web --port 9090
  photoactive-web --model gemini-3-pro-preview`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", diagnosis.ModelName(), "Gemini model to use")
	rootCmd.Flags().StringVar(&historyDirFlag, "history-dir", "", "History storage directory (default ~/.photoactive)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	// Surface a missing key at startup rather than on the first analysis.
	// The analyzer still resolves the key per call, so a key added or
	// rotated while the server runs is picked up without a restart.
	if _, err := auth.GetAPIKey(); err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	history, err := session.Open(session.Config{Dir: historyDirFlag})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history")
	}
	log.Info().Int("entries", history.Len()).Msg("History loaded")

	srv := newServer(history, modelFlag)

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/session", srv.handleSession)
	mux.HandleFunc("/api/image", srv.handleImage)
	mux.HandleFunc("/api/capture-denied", srv.handleCaptureDenied)
	mux.HandleFunc("/api/title", srv.handleTitle)
	mux.HandleFunc("/api/language", srv.handleLanguage)
	mux.HandleFunc("/api/analyze", srv.handleAnalyze)
	mux.HandleFunc("/api/reset", srv.handleReset)
	mux.HandleFunc("/api/preview", srv.handlePreview)
	mux.HandleFunc("/api/history", srv.handleHistory)
	mux.HandleFunc("/api/history/select", srv.handleHistorySelect)
	mux.HandleFunc("/api/history/export", srv.handleHistoryExport)

	// Frontend static files (SPA fallback)
	frontendSub, err := fs.Sub(frontendFS, "frontend_dist")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to access embedded frontend")
	}
	fileServer := http.FileServer(http.FS(frontendSub))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Security headers
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' blob: data:; style-src 'self' 'unsafe-inline'; connect-src 'self'; media-src 'self' blob:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// SPA fallback: if the file doesn't exist, serve index.html
		path := r.URL.Path
		if path != "/" {
			f, err := frontendSub.Open(strings.TrimPrefix(path, "/"))
			if err != nil {
				r.URL.Path = "/"
			} else {
				f.Close()
			}
		}
		fileServer.ServeHTTP(w, r)
	})

	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", portFlag)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(ctx)
	}()

	log.Info().Int("port", portFlag).Str("model", modelFlag).Msg("Starting web server")
	fmt.Printf("\n  PhotoActive: http://localhost:%d\n\n", portFlag)

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func newServer(history *session.History, model string) *server {
	return &server{
		analyzer: diagnosis.NewAnalyzer(auth.GetAPIKey, diagnosis.WithModel(model)),
		history:  history,
		registry: newSessionRegistry(),
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server binds locally; only localhost origins are allowed.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cmd/server exposes a minimal read-only HTTP surface over already
// persisted bias analysis results, additive to the batch CLI path.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	storagelocal "gohypo/adapters/storage/local"
	"gohypo/internal"
	"gohypo/internal/config"
)

var logger = internal.NewDefaultLogger()

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	reader := storagelocal.New(cfg.Storage.DataRoot)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/runs/{date}", func(w http.ResponseWriter, req *http.Request) {
		date := chi.URLParam(req, "date")
		result, err := reader.ReadResult(req.Context(), date)
		if err != nil {
			logger.Warn("no analysis result for %s: %v", date, err)
			http.Error(w, fmt.Sprintf("no analysis result for %s: %v", date, err), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + getEnvOrDefault("BIAS_SERVER_PORT", "8090")
	log.Printf("bias-engine server listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvoice/creative-cli/internal/worklist"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a status server that accepts single-item analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// The chat session is a singleton; requests run one at a time.
		var runMu sync.Mutex

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /rows", func(w http.ResponseWriter, r *http.Request) {
			keys, err := env.Store.Keys(r.Context())
			if err != nil {
				http.Error(w, `{"error":"store read failed"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"count": len(keys), "keys": keys})
		})

		mux.HandleFunc("GET /rows/{key}", func(w http.ResponseWriter, r *http.Request) {
			row, found, err := env.Store.ReadRow(r.Context(), r.PathValue("key"))
			if err != nil {
				http.Error(w, `{"error":"store read failed"}`, http.StatusInternalServerError)
				return
			}
			if !found {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(row)
		})

		mux.HandleFunc("POST /enqueue", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				URL string `json:"url"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
				http.Error(w, `{"error":"url is required"}`, http.StatusBadRequest)
				return
			}

			items := worklist.Items([]string{req.URL}, cfg.Download.Dir)

			go func() {
				runMu.Lock()
				defer runMu.Unlock()

				sum, err := env.Pipeline.Run(ctx, items)
				if err != nil {
					zap.L().Error("enqueued item failed",
						zap.String("url", req.URL), zap.Error(err))
					return
				}
				zap.L().Info("enqueued item done",
					zap.String("url", req.URL),
					zap.String("summary", sum.String()))
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "url": req.URL})
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("status server listening", zap.Int("port", servePort))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "serve")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "listen port")
	rootCmd.AddCommand(serveCmd)
}

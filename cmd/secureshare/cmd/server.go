package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/devserver"
)

var (
	serverPort      int
	serverDataDir   string
	serverMemory    bool
	cleanupSchedule string
	adminUsername   string
	adminEmail      string
	adminPassword   string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the SecureShare development server",
	Long: `Run the backend the client commands talk to. Data persists under
--data-dir unless --memory is set, in which case everything lives in RAM and
is lost on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var store devserver.Store
		if serverMemory {
			store = devserver.NewMemStore()
		} else {
			if err := os.MkdirAll(serverDataDir, 0o700); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			bolt, err := devserver.OpenBoltStore(filepath.Join(serverDataDir, "secureshare.db"), nil)
			if err != nil {
				return fmt.Errorf("failed to open data store: %w", err)
			}
			store = bolt
		}
		defer store.Close()

		if adminEmail != "" {
			if err := devserver.SeedAdmin(store, adminUsername, adminEmail, adminPassword); err != nil {
				return fmt.Errorf("failed to seed admin account: %w", err)
			}
		}

		srv, err := devserver.New(store)
		if err != nil {
			return err
		}

		stopJanitor, err := srv.StartJanitor(cleanupSchedule)
		if err != nil {
			return fmt.Errorf("invalid cleanup schedule: %w", err)
		}
		defer stopJanitor()

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api", srv.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", serverPort),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		fmt.Printf("Starting SecureShare server on port %d...\n", serverPort)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Port to listen on")
	serverCmd.Flags().StringVar(&serverDataDir, "data-dir", "./data", "Directory for persistent data")
	serverCmd.Flags().BoolVar(&serverMemory, "memory", false, "Keep all data in memory")
	serverCmd.Flags().StringVar(&cleanupSchedule, "cleanup-schedule", devserver.DefaultCleanupSchedule, "Cron schedule for the expired-file purge")
	serverCmd.Flags().StringVar(&adminUsername, "admin-username", "admin", "Username for the seeded admin account")
	serverCmd.Flags().StringVar(&adminEmail, "admin-email", "", "Seed an admin account with this email")
	serverCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password for the seeded admin account")
}

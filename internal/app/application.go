// Package app wires the components together with explicit dependency
// injection: store, session manager, admission pipeline, kill switch, HTTP
// server. Nothing here is global state.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"presenz/internal/admission"
	"presenz/internal/api"
	"presenz/internal/config"
	"presenz/internal/database"
	"presenz/internal/export"
	"presenz/internal/killswitch"
	"presenz/internal/session"
)

// StartOptions are the per-run parameters from the CLI.
type StartOptions struct {
	Course     string
	Batch      string
	Capacity   int
	DBFilename string // filename within the configured base path
}

// Application coordinates all system components.
type Application struct {
	config     *config.Config
	store      *database.Manager
	sessions   *session.Manager
	killSwitch *killswitch.KillSwitch
	exporter   *export.Exporter
	httpServer *http.Server
}

// NewApplication initializes components in dependency order:
// store → session → pipeline → kill switch → API → HTTP.
// Any failure here is fatal to startup.
func NewApplication(cfg *config.Config, opts StartOptions) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbFilename := opts.DBFilename
	if dbFilename == "" {
		dbFilename = "default.db"
	}

	if err := os.MkdirAll(cfg.Database.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// STEP 1: durable store.
	store, err := database.NewManager(&database.Config{
		BasePath: cfg.Database.BasePath,
		Filename: dbFilename,
		WALMode:  cfg.Database.WALMode,
		Timeout:  cfg.Database.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize attendance store: %w", err)
	}

	// STEP 2: session lifecycle. Start fails if arguments are unusable.
	sessions := session.NewManager(cfg.Session.IDLength, cfg.Session.CodeLength)
	if err := sessions.Start(opts.Capacity, opts.Course, opts.Batch, dbFilename); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	// STEP 3: record table for this session.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	if err := store.EnsureTable(ctx, sessions.TableName()); err != nil {
		sessions.End()
		_ = store.Close()
		return nil, fmt.Errorf("failed to create attendance table: %w", err)
	}

	// STEP 4: admission pipeline, kill switch, export.
	pipeline := admission.NewPipeline(sessions, store)
	ks := killswitch.New()
	exporter, err := export.NewExporter(cfg.Export.BackupPath, cfg.Export.Format)
	if err != nil {
		sessions.End()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	// STEP 5: HTTP surface.
	apiServer := api.NewServer(pipeline, sessions, store, ks)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		sessions:   sessions,
		killSwitch: ks,
		exporter:   exporter,
		httpServer: httpServer,
	}, nil
}

// KillSwitch exposes the shutdown coordinator to the supervisor.
func (app *Application) KillSwitch() *killswitch.KillSwitch {
	return app.killSwitch
}

// SessionCode returns the code shared with submitters.
func (app *Application) SessionCode() string {
	return app.sessions.Code()
}

// TableName returns the active session's storage table.
func (app *Application) TableName() string {
	return app.sessions.TableName()
}

// Addr returns the HTTP listen address.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}

// Start launches the HTTP server and the kill switch's background tasks.
// Returns once the server is accepting connections.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting Presenz on %s", app.httpServer.Addr)

	go app.killSwitch.ListenForCommand(os.Stdin)
	if app.config.KillSwitch.InactivityEnabled {
		go app.killSwitch.InactivityMonitor(ctx, app.config.KillSwitch.InactivityTimeout)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("Presenz started, accepting submissions")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the system down in reverse dependency order: stop accepting
// submissions, export the session report, close the store, end the session.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down Presenz")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	table := app.sessions.TableName()
	if table != "" {
		records, err := app.store.FetchAll(ctx, table)
		if err != nil {
			log.Printf("Failed to fetch records for export: %v", err)
		} else if _, err := app.exporter.Export(table, records); err != nil {
			log.Printf("Failed to export session report: %v", err)
		}
	}

	if err := app.store.Close(); err != nil {
		log.Printf("Attendance store shutdown error: %v", err)
	}

	app.sessions.End()

	log.Printf("Presenz shutdown complete")
	return nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	httpadapter "github.com/fredcamaral/texdeck/internal/adapters/primary/http"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/browser"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/watcher"
	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/services"
)

var (
	servePort  int
	serveHost  string
	serveOpen  bool
	serveWatch string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion service",
	Long: `Start the HTTP conversion service with the upload form at /,
POST /convert, GET /download/{filename} and GET /cleanup.

With --watch, the given LaTeX file is converted again on every change and
the result is pushed to websocket clients on /ws.

Example:
  texdeck serve
  texdeck serve --port 8080 --open
  texdeck serve --watch talk.tex`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to serve on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the upload form in a browser")
	serveCmd.Flags().StringVarP(&serveWatch, "watch", "w", "", "LaTeX file to reconvert on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	workingDir := "."
	if serveWatch != "" {
		workingDir = filepath.Dir(serveWatch)
	}

	a, err := newApp(cmd, workingDir)
	if err != nil {
		return err
	}

	srv, err := httpadapter.NewServer(httpadapter.ServerDeps{
		Converter: a.converter,
		Store:     a.store,
		Config:    a.config,
		Logger:    a.logger.With("server"),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	url := "http://" + srv.Addr()
	a.logger.Success("Server running at: %s", url)
	a.logger.Info("Output directory: %s", a.store.Dir())

	scheduler := services.NewCleanupScheduler(a.converter, srv, nil, a.config.Output.GetCleanupInterval(), a.logger.With("cleanup"))
	go scheduler.Run(ctx)

	if serveWatch != "" {
		if err := startServeWatch(ctx, a, srv, serveWatch); err != nil {
			_ = srv.Stop(context.Background())
			return err
		}
	}

	if serveOpen {
		if err := browser.NewLauncher().Open(url); err != nil {
			a.logger.Warn("Failed to open browser: %v", err)
		}
	}

	<-ctx.Done()
	a.logger.Info("Shutting down server...")

	if err := srv.Stop(context.Background()); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return nil
}

// startServeWatch reconverts path with default settings on every change
// and lets the server broadcast the outcome
func startServeWatch(ctx context.Context, a *app, srv *httpadapter.Server, path string) error {
	w := watcher.NewPollingWatcher(a.config.Watcher.GetInterval(), a.config.Watcher.GetDebounce(), a.logger.With("watcher"))
	svc := services.NewWatchService(w, a.converter, srv, a.logger.With("watch"))

	results, err := svc.Start(ctx, path, entities.ConversionRequest{})
	if err != nil {
		return err
	}

	go func() {
		for wr := range results {
			if wr.Err != nil {
				a.logger.Error("Conversion of %s failed: %v", path, wr.Err)
				continue
			}
			a.logger.Success("Converted %s -> %s", path, wr.Result.Filename)
		}
	}()

	a.logger.Info("Watching %s", path)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

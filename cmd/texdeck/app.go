package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/texdeck/internal/adapters/secondary/config"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/export"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/parser"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/storage"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/translator"
	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
	"github.com/fredcamaral/texdeck/internal/domain/services"
	"github.com/fredcamaral/texdeck/internal/logging"
)

// app holds the services wired for one command run
type app struct {
	config    *entities.Config
	logger    *logging.Logger
	store     *storage.FilesystemStore
	converter *services.ConversionService
}

// newApp loads the configuration for workingDir and wires the conversion
// core from it
func newApp(cmd *cobra.Command, workingDir string) (*app, error) {
	cfg, err := loadConfig(commandContext(cmd), workingDir, collectFlags(cmd))
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithOutput("texdeck", cfg.Logging.GetLevel(), cmd.ErrOrStderr())
	if cfg.Logging.Verbose {
		logger.SetLevel(entities.LogLevelDebug)
	}

	store, err := storage.NewFilesystemStore(cfg.Output.Directory, cfg.Output.GetDeckName(), nil)
	if err != nil {
		return nil, err
	}

	table, err := translator.LoadOrDefault(cfg.Translation.File)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	registry := export.NewDefaultRegistry(cfg.Output.PDFFont)
	renderers := make([]ports.DeckRenderer, 0, len(registry.Formats()))
	for _, format := range registry.Formats() {
		r, err := registry.Get(format)
		if err != nil {
			return nil, err
		}
		renderers = append(renderers, r)
	}

	converter, err := services.NewConversionService(services.ConversionDeps{
		Parsers: map[entities.MarkupMode]ports.MarkupParser{
			entities.ModeBeamer:  parser.ParserFor(entities.ModeBeamer),
			entities.ModeArticle: parser.ParserFor(entities.ModeArticle),
		},
		Translator: translator.NewSubstitutionTranslator(table),
		Renderers:  renderers,
		Store:      store,
		MaxAge:     cfg.Output.GetMaxAge(),
		Logger:     logger.With("convert"),
	})
	if err != nil {
		return nil, fmt.Errorf("wiring conversion service: %w", err)
	}

	return &app{
		config:    cfg,
		logger:    logger,
		store:     store,
		converter: converter,
	}, nil
}

// loadConfig applies precedence flags > env > local > global > defaults
func loadConfig(ctx context.Context, workingDir string, flags map[string]interface{}) (*entities.Config, error) {
	svc := services.NewConfigService(config.NewTOMLLoader(), config.NewConfigMerger())
	cfg, err := svc.LoadConfig(ctx, workingDir, flags)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// collectFlags gathers the explicitly set flags the config merger knows
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	for _, name := range []string{"config", "output", "deck-name", "pdf-font", "translations", "host"} {
		if set.Lookup(name) != nil && set.Changed(name) {
			flags[name], _ = set.GetString(name)
		}
	}
	if set.Lookup("port") != nil && set.Changed("port") {
		flags["port"], _ = set.GetInt("port")
	}
	if v, err := set.GetBool("verbose"); err == nil && v {
		flags["verbose"] = true
	}

	return flags
}

func printResult(w io.Writer, r *entities.ConversionResult) {
	fmt.Fprintf(w, "Created %s (%d slides, %s, %d bytes) in %v\n",
		r.Path, r.SlideCount, r.Locale.Suffix(), r.FileSize, r.Duration.Round(time.Millisecond))
	if r.MediaSkip > 0 {
		fmt.Fprintf(w, "Skipped %d media files that could not be embedded\n", r.MediaSkip)
	}
}

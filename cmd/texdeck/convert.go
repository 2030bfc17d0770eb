package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/texdeck/internal/adapters/secondary/browser"
	"github.com/fredcamaral/texdeck/internal/adapters/secondary/watcher"
	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/services"
)

var (
	convertFormat string
	convertLocale string
	convertMode   string
	convertMedia  []string
	convertWatch  bool
	convertOpen   bool
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <file.tex>",
	Short: "Convert a LaTeX file to a slideshow or document",
	Long: `Parse a LaTeX beamer file and write it as a .pptx slideshow or a
.pdf document into the output directory.

Media files are copied into <output>/media. Slideshows rotate through
them, documents place them one per slide until they run out.

Example:
  texdeck convert talk.tex
  texdeck convert talk.tex --format pdf --locale russian --media fig1.png --media fig2.jpg
  texdeck convert notes.tex --mode article --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "slideshow", "Output format: slideshow (pptx) or document (pdf)")
	convertCmd.Flags().StringVarP(&convertLocale, "locale", "l", "english", "Title locale: english or russian")
	convertCmd.Flags().StringVarP(&convertMode, "mode", "m", "beamer", "Markup mode: beamer or article")
	convertCmd.Flags().StringArrayVar(&convertMedia, "media", nil, "Image or video to place on slides (repeatable)")
	convertCmd.Flags().BoolVarP(&convertWatch, "watch", "w", false, "Convert again whenever the file changes")
	convertCmd.Flags().BoolVar(&convertOpen, "open", false, "Open the written artifact")
}

func runConvert(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]

	markup, err := readMarkup(sourcePath)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, filepath.Dir(sourcePath))
	if err != nil {
		return err
	}

	media, err := importMedia(a, convertMedia)
	if err != nil {
		return err
	}

	req := entities.ConversionRequest{
		Markup: markup,
		Locale: entities.Locale(convertLocale),
		Format: entities.Format(convertFormat),
		Mode:   entities.MarkupMode(convertMode),
		Media:  media,
	}

	ctx := commandContext(cmd)

	result, err := a.converter.Convert(ctx, req)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)

	if convertOpen {
		if err := browser.NewLauncher().Open(result.Path); err != nil {
			a.logger.Warn("Could not open %s: %v", result.Path, err)
		}
	}

	if !convertWatch {
		return nil
	}
	return watchAndConvert(ctx, cmd, a, sourcePath, req)
}

// watchAndConvert reconverts sourcePath on every change until ctx ends
func watchAndConvert(ctx context.Context, cmd *cobra.Command, a *app, sourcePath string, req entities.ConversionRequest) error {
	w := watcher.NewPollingWatcher(a.config.Watcher.GetInterval(), a.config.Watcher.GetDebounce(), a.logger.With("watcher"))
	svc := services.NewWatchService(w, a.converter, nil, a.logger.With("watch"))

	results, err := svc.Start(ctx, sourcePath, req)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Stop() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", sourcePath)

	for wr := range results {
		if wr.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Conversion failed: %v\n", wr.Err)
			continue
		}
		printResult(cmd.OutOrStdout(), wr.Result)
	}
	return nil
}

// readMarkup reads a regular source file
func readMarkup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("accessing LaTeX file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("LaTeX path is not a regular file: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - path validated above
	if err != nil {
		return "", fmt.Errorf("reading LaTeX file: %w", err)
	}
	return string(data), nil
}

// importMedia copies local media into the store, keeping their order
func importMedia(a *app, paths []string) ([]string, error) {
	var media []string
	for _, p := range paths {
		dst, err := a.store.ImportMedia(p)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", p, err)
		}
		media = append(media, dst)
	}
	return media, nil
}

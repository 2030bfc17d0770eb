package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "dev"

	// BuildDate is set during build
	BuildDate = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "texdeck",
	Short: "Convert LaTeX beamer slides to pptx and pdf",
	Long: `texdeck reads LaTeX beamer (or article) markup and writes a
slideshow (.pptx) or a paginated document (.pdf). Slide titles can be
translated to Russian through an ordered glossary, and the same
conversion is available as an HTTP service.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build Date: ` + BuildDate + `
`)

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose output")
	flags.StringP("config", "c", "", "Config file (default: ./texdeck.toml)")
	flags.StringP("output", "o", "", "Output directory (overrides config)")
	flags.String("deck-name", "", "Artifact name prefix (overrides config)")
	flags.String("pdf-font", "", "TrueType font for documents (overrides config)")
	flags.String("translations", "", "YAML title glossary (overrides config)")
}

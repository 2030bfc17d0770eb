package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

const beamerSource = `\documentclass{beamer}
\title{Quarterly Review}
\author{Ann Lee}
\begin{document}
\begin{frame}
\titlepage
\end{frame}
\begin{frame}{Introduction}
\begin{itemize}
\item Revenue grew
\item Costs fell
\end{itemize}
\end{frame}
\end{document}
`

// resetFlags restores every flag to its default between executions
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command in an isolated home directory
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func writeSource(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "talk.tex")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	path := filepath.Join(dir, "chart.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func artifacts(t *testing.T, dir, ext string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
	require.NoError(t, err)
	return matches
}

func TestConvertCommand(t *testing.T) {
	t.Run("writes a slideshow by default", func(t *testing.T) {
		src := writeSource(t, t.TempDir(), beamerSource)
		out := t.TempDir()

		stdout, err := execute(t, "convert", src, "--output", out)

		require.NoError(t, err)
		assert.Contains(t, stdout, "Created")
		files := artifacts(t, out, "pptx")
		require.Len(t, files, 1)
		assert.True(t, strings.HasPrefix(filepath.Base(files[0]), "LaTeX_Presentation_English_"))
	})

	t.Run("russian document with media", func(t *testing.T) {
		srcDir := t.TempDir()
		src := writeSource(t, srcDir, beamerSource)
		media := writePNG(t, srcDir)
		out := t.TempDir()

		_, err := execute(t, "convert", src, "-o", out, "--format", "pdf", "--locale", "russian", "--media", media)

		require.NoError(t, err)
		files := artifacts(t, out, "pdf")
		require.Len(t, files, 1)
		assert.Contains(t, filepath.Base(files[0]), "_Russian_")
		assert.FileExists(t, filepath.Join(out, "media", "chart.png"))
	})

	t.Run("article mode", func(t *testing.T) {
		src := writeSource(t, t.TempDir(), `\title{Notes}
\begin{document}
\subsection{Overview}
\begin{itemize}
\item first
\end{itemize}
\end{document}`)
		out := t.TempDir()

		_, err := execute(t, "convert", src, "-o", out, "--mode", "article", "--deck-name", "Notes")

		require.NoError(t, err)
		files := artifacts(t, out, "pptx")
		require.Len(t, files, 1)
		assert.True(t, strings.HasPrefix(filepath.Base(files[0]), "Notes_English_"))
	})

	t.Run("no slides", func(t *testing.T) {
		src := writeSource(t, t.TempDir(), "just some text")

		_, err := execute(t, "convert", src, "-o", t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), entities.MsgNoSlides)
	})

	t.Run("empty source", func(t *testing.T) {
		src := writeSource(t, t.TempDir(), "")

		_, err := execute(t, "convert", src, "-o", t.TempDir())

		require.Error(t, err)
		assert.Equal(t, entities.MsgNoSlides, err.Error())
	})

	t.Run("unsupported format", func(t *testing.T) {
		src := writeSource(t, t.TempDir(), beamerSource)

		_, err := execute(t, "convert", src, "-o", t.TempDir(), "--format", "docx")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := execute(t, "convert", filepath.Join(t.TempDir(), "nope.tex"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "accessing LaTeX file")
	})

	t.Run("missing media", func(t *testing.T) {
		src := writeSource(t, t.TempDir(), beamerSource)

		_, err := execute(t, "convert", src, "-o", t.TempDir(), "--media", "/does/not/exist.png")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "importing")
	})

	t.Run("requires exactly one file", func(t *testing.T) {
		_, err := execute(t, "convert")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})
}

func TestConvertCommand_LocalConfig(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, beamerSource)
	out := filepath.Join(t.TempDir(), "artifacts")

	config := "[output]\ndirectory = \"" + filepath.ToSlash(out) + "\"\ndeck_name = \"Review\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "texdeck.toml"), []byte(config), 0600))

	_, err := execute(t, "convert", src)

	require.NoError(t, err)
	files := artifacts(t, out, "pptx")
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(filepath.Base(files[0]), "Review_English_"))
}

func TestCleanupCommand(t *testing.T) {
	out := t.TempDir()
	fresh := filepath.Join(out, "LaTeX_Presentation_English_20240102_030405.pptx")
	require.NoError(t, os.WriteFile(fresh, []byte("PK"), 0600))

	stdout, err := execute(t, "cleanup", "-o", out)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleaned 0 old files")
	assert.FileExists(t, fresh)
}

func TestCollectFlags(t *testing.T) {
	t.Cleanup(func() { resetFlags(rootCmd) })

	require.NoError(t, rootCmd.PersistentFlags().Set("output", "out"))
	require.NoError(t, serveCmd.Flags().Set("port", "8080"))
	require.NoError(t, rootCmd.PersistentFlags().Set("verbose", "true"))

	// persistent flags are merged into the subcommand's set on execution
	serveCmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	flags := collectFlags(serveCmd)

	assert.Equal(t, "out", flags["output"])
	assert.Equal(t, 8080, flags["port"])
	assert.Equal(t, true, flags["verbose"])
	assert.NotContains(t, flags, "host")
	assert.NotContains(t, flags, "translations")
}

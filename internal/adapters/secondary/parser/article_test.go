package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

func TestArticleParser_Parse(t *testing.T) {
	p := NewArticleParser()

	t.Run("subsections become slides", func(t *testing.T) {
		markup := `\documentclass{article}
\title{Quarterly Report}
\begin{document}
\section{Results}
\subsection{Overview}
\begin{itemize}
\item Revenue grew
\item Costs fell
\end{itemize}
\subsection{Details}
Numbers are in \textbf{the appendix} for now.
\end{document}`

		deck := p.Parse(markup)
		require.Len(t, deck, 3)

		assert.True(t, deck[0].IsTitle())
		assert.Equal(t, "Quarterly Report", deck[0].Title)

		assert.Equal(t, "Overview", deck[1].Title)
		assert.Equal(t, []entities.ContentItem{
			entities.Bullet("Revenue grew"),
			entities.Bullet("Costs fell"),
		}, deck[1].Items)
		assert.Empty(t, deck[1].Raw)

		assert.Equal(t, "Details", deck[2].Title)
		assert.Empty(t, deck[2].Items)
		assert.Equal(t, "Numbers are in  for now.", deck[2].Raw)
	})

	t.Run("default title", func(t *testing.T) {
		deck := p.Parse("\\subsection{Only}\nbody\n\\end{document}")
		require.Len(t, deck, 2)
		assert.Equal(t, DefaultArticleTitle, deck[0].Title)
		assert.Equal(t, "body", deck[1].Raw)
	})

	t.Run("trailing subsection without terminator is dropped", func(t *testing.T) {
		deck := p.Parse("\\title{T}\n\\subsection{Kept}\na\n\\subsection{Lost}\nb")
		require.Len(t, deck, 2)
		assert.Equal(t, "Kept", deck[1].Title)
	})

	t.Run("no subsections yields only the title slide", func(t *testing.T) {
		deck := p.Parse("\\title{T}\n\\section{S}\ntext")
		require.Len(t, deck, 1)
		assert.True(t, deck[0].IsTitle())
	})
}

func TestCleanRaw(t *testing.T) {
	assert.Equal(t, "plain", CleanRaw("plain"))
	assert.Equal(t, "a  b", CleanRaw(`a \emph{x} b`))
	assert.Equal(t, "stray braces", CleanRaw(`{stray} \braces`))
}

func TestParserFor(t *testing.T) {
	assert.IsType(t, &BeamerParser{}, ParserFor(entities.ModeBeamer))
	assert.IsType(t, &BeamerParser{}, ParserFor(""))
	assert.IsType(t, &ArticleParser{}, ParserFor(entities.ModeArticle))
}

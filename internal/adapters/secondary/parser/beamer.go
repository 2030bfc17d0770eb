package parser

import (
	"strings"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// DefaultFrameTitle is used for frames opened without a brace group
const DefaultFrameTitle = "Slide"

// State is the position of the beamer parser inside the markup
type State int

const (
	// StateNeutral is outside any frame
	StateNeutral State = iota
	// StateInFrame is inside a frame, outside any itemize block
	StateInFrame
	// StateInItemize is inside an itemize block of a frame. Only one level
	// is tracked: a nested \begin{itemize} keeps this state and the first
	// \end{itemize} leaves it.
	StateInItemize
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateNeutral:
		return "neutral"
	case StateInFrame:
		return "in-frame"
	case StateInItemize:
		return "in-itemize"
	default:
		return "unknown"
	}
}

// Command is the classification of one trimmed input line
type Command int

const (
	CmdIgnore Command = iota
	CmdTitle
	CmdAuthor
	CmdFrameOpen
	CmdFrameClose
	CmdItemizeOpen
	CmdItemizeClose
	CmdItem
	CmdText
)

// Action is the side effect of a transition
type Action int

const (
	ActNone Action = iota
	ActAppendTitle
	ActAttachAuthor
	ActOpenFrame
	ActEmitFrame
	ActAppendBullet
	ActAppendText
)

// Transition is one row of the parser transition table
type Transition struct {
	Next   State
	Action Action
}

type transitionKey struct {
	from State
	cmd  Command
}

// transitions is the complete table. Any (state, command) pair missing
// from it keeps the current state and does nothing.
//
//	state       | command          | next        | action
//	------------+------------------+-------------+---------------
//	any         | \title           | (same)      | append title slide
//	any         | \author          | (same)      | attach author to last title slide
//	neutral     | \begin{frame}    | in-frame    | open frame
//	in-frame    | \begin{frame}    | in-frame    | reopen frame (buffer reset)
//	in-itemize  | \begin{frame}    | in-frame    | reopen frame (buffer reset)
//	in-frame    | \end{frame}      | neutral     | emit content slide
//	in-itemize  | \end{frame}      | neutral     | emit content slide
//	in-frame    | \begin{itemize}  | in-itemize  |
//	in-itemize  | \begin{itemize}  | in-itemize  |
//	in-itemize  | \end{itemize}    | in-frame    |
//	in-frame    | \end{itemize}    | in-frame    |
//	in-itemize  | \item            | in-itemize  | append bullet
//	in-frame    | text             | in-frame    | append text
//	in-itemize  | text             | in-itemize  | append text
var transitions = func() map[transitionKey]Transition {
	t := map[transitionKey]Transition{
		{StateNeutral, CmdFrameOpen}:      {StateInFrame, ActOpenFrame},
		{StateInFrame, CmdFrameOpen}:      {StateInFrame, ActOpenFrame},
		{StateInItemize, CmdFrameOpen}:    {StateInFrame, ActOpenFrame},
		{StateInFrame, CmdFrameClose}:     {StateNeutral, ActEmitFrame},
		{StateInItemize, CmdFrameClose}:   {StateNeutral, ActEmitFrame},
		{StateInFrame, CmdItemizeOpen}:    {StateInItemize, ActNone},
		{StateInItemize, CmdItemizeOpen}:  {StateInItemize, ActNone},
		{StateInItemize, CmdItemizeClose}: {StateInFrame, ActNone},
		{StateInFrame, CmdItemizeClose}:   {StateInFrame, ActNone},
		{StateInItemize, CmdItem}:         {StateInItemize, ActAppendBullet},
		{StateInFrame, CmdText}:           {StateInFrame, ActAppendText},
		{StateInItemize, CmdText}:         {StateInItemize, ActAppendText},
	}
	for _, s := range []State{StateNeutral, StateInFrame, StateInItemize} {
		t[transitionKey{s, CmdTitle}] = Transition{s, ActAppendTitle}
		t[transitionKey{s, CmdAuthor}] = Transition{s, ActAttachAuthor}
	}
	return t
}()

// Next looks up the transition for a state and command
func Next(from State, cmd Command) Transition {
	if tr, ok := transitions[transitionKey{from, cmd}]; ok {
		return tr
	}
	return Transition{Next: from, Action: ActNone}
}

const (
	tokenTitle        = `\title`
	tokenAuthor       = `\author`
	tokenFrameOpen    = `\begin{frame}`
	tokenFrameClose   = `\end{frame}`
	tokenItemizeOpen  = `\begin{itemize}`
	tokenItemizeClose = `\end{itemize}`
	tokenItem         = `\item`
)

// BeamerParser reads the beamer subset line by line
type BeamerParser struct {
	defaultFrameTitle string
}

// NewBeamerParser creates a new beamer markup parser
func NewBeamerParser() *BeamerParser {
	return &BeamerParser{defaultFrameTitle: DefaultFrameTitle}
}

// Parse implements ports.MarkupParser. It never fails: unknown lines are
// dropped and a frame still open at the end of input is discarded.
func (p *BeamerParser) Parse(markup string) entities.Deck {
	run := &beamerRun{
		state:             StateNeutral,
		deck:              entities.Deck{},
		defaultFrameTitle: p.defaultFrameTitle,
	}

	for _, raw := range strings.Split(markup, "\n") {
		line := strings.TrimSpace(raw)
		cmd, arg := classify(line)
		tr := Next(run.state, cmd)
		run.apply(tr.Action, line, arg)
		run.state = tr.Next
	}

	return run.deck
}

// beamerRun holds the mutable state of one Parse call
type beamerRun struct {
	state             State
	deck              entities.Deck
	frameTitle        string
	items             []entities.ContentItem
	defaultFrameTitle string
}

func (r *beamerRun) apply(action Action, line, arg string) {
	switch action {
	case ActAppendTitle:
		r.deck = append(r.deck, entities.NewTitleSlide(arg))
	case ActAttachAuthor:
		// an author before any title has nothing to attach to
		if n := len(r.deck); n > 0 && r.deck[n-1].IsTitle() {
			r.deck[n-1].SetAuthor(arg)
		}
	case ActOpenFrame:
		r.frameTitle = arg
		if r.frameTitle == "" && !strings.Contains(line[len(tokenFrameOpen):], "{") {
			r.frameTitle = r.defaultFrameTitle
		}
		r.items = []entities.ContentItem{}
	case ActEmitFrame:
		r.deck = append(r.deck, entities.NewContentSlide(r.frameTitle, r.items))
		r.items = nil
	case ActAppendBullet:
		r.items = append(r.items, entities.Bullet(arg))
	case ActAppendText:
		r.items = append(r.items, entities.Text(line))
	}
}

// classify maps a trimmed line to its command and argument
func classify(line string) (Command, string) {
	switch {
	case line == "":
		return CmdIgnore, ""
	case hasCommand(line, tokenTitle):
		return CmdTitle, braceArgument(line[len(tokenTitle):])
	case hasCommand(line, tokenAuthor):
		return CmdAuthor, braceArgument(line[len(tokenAuthor):])
	case strings.HasPrefix(line, tokenFrameOpen):
		return CmdFrameOpen, braceArgument(line[len(tokenFrameOpen):])
	case strings.HasPrefix(line, tokenFrameClose):
		return CmdFrameClose, ""
	case strings.HasPrefix(line, tokenItemizeOpen):
		return CmdItemizeOpen, ""
	case strings.HasPrefix(line, tokenItemizeClose):
		return CmdItemizeClose, ""
	case hasCommand(line, tokenItem):
		return CmdItem, strings.TrimSpace(line[len(tokenItem):])
	case strings.HasPrefix(line, `\`):
		return CmdIgnore, ""
	default:
		return CmdText, ""
	}
}

// hasCommand matches a control word prefix followed by a non-letter, so
// \title matches "\title{X}" and "\title[s]{X}" but not "\titlepage"
func hasCommand(line, token string) bool {
	if !strings.HasPrefix(line, token) {
		return false
	}
	if len(line) == len(token) {
		return true
	}
	c := line[len(token)]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}

// braceArgument returns the text between the first '{' and the last '}'.
// Nested or repeated groups are not separated: the widest span wins.
func braceArgument(s string) string {
	open := strings.Index(s, "{")
	if open < 0 {
		return ""
	}
	closing := strings.LastIndex(s, "}")
	if closing <= open {
		return strings.TrimSpace(s[open+1:])
	}
	return strings.TrimSpace(s[open+1 : closing])
}

// Ensure BeamerParser implements ports.MarkupParser
var _ ports.MarkupParser = (*BeamerParser)(nil)

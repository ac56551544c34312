// Package render drives the token-to-markup pass shared by the
// output formats: region suppression, reindentation and the
// classification of token text into write operations.
//
// The pass is forward-only. Each token is turned into zero or more
// segments that a formatter writes out in order; nothing is buffered
// or revisited.
package render

import (
	"strings"

	"go.abhg.dev/bookhilite/internal/token"
)

// Op says how a formatter must write a segment.
type Op int

const (
	// OpText is token text to be escaped and styled.
	// It never contains a newline.
	OpText Op = iota

	// OpNewline is a single output line break.
	OpNewline

	// OpMarkup is target markup emitted verbatim,
	// newlines included.
	OpMarkup
)

// A Segment is one write operation.
type Segment struct {
	Op   Op
	Text string
	Cat  *token.Category // set for OpText
}

// Config alters the behavior of a Pass.
type Config struct {
	// HideByDefault starts the pass suppressed, as if the input
	// began with a hidden-region marker.
	HideByDefault bool

	// Reindent strips the leading whitespace of the first visible
	// line from every subsequent line that starts with it.
	Reindent bool
}

// A Pass consumes one token stream. It must not be reused across
// inputs; all of its state is specific to one conversion.
type Pass struct {
	reindent bool

	hidden    bool
	capture   bool // capture the baseline from the next visible token
	baseline  string
	atNewline bool
}

// NewPass returns a Pass ready to consume a token stream.
func NewPass(cfg Config) *Pass {
	return &Pass{
		reindent:  cfg.Reindent,
		hidden:    cfg.HideByDefault,
		capture:   true,
		atNewline: true,
	}
}

// Feed advances the pass by one token.
func (p *Pass) Feed(tok token.Token) []Segment {
	cat := tok.Type

	// Region markers toggle suppression and emit nothing, the
	// newline of the marker line included. Mismatched or repeated
	// markers leave the state unchanged.
	switch {
	case cat.In(token.CommentInvisibleBegin):
		p.hidden = true
		return nil
	case cat.In(token.CommentInvisibleEnd):
		if p.hidden {
			p.hidden = false
			p.capture = true
			p.atNewline = true
		}
		return nil
	}

	if p.hidden {
		return nil
	}

	switch {
	case cat.In(token.CommentMarkup):
		// Target markup passes through unescaped with its own
		// newlines.
		p.atNewline = strings.HasSuffix(tok.Value, "\n")
		return []Segment{{Op: OpMarkup, Text: tok.Value}}

	case cat.In(token.CommentInvisible), cat.In(token.CommentEmph):
		// Invisible text contributes nothing, but its newlines
		// become blank lines so that the output keeps the
		// source's line numbering.
		var segs []Segment
		for i := 0; i < strings.Count(tok.Value, "\n"); i++ {
			segs = append(segs, Segment{Op: OpNewline})
		}
		if len(segs) > 0 {
			p.atNewline = true
		}
		return segs
	}

	return p.text(tok.Value, cat)
}

func (p *Pass) text(value string, cat *token.Category) []Segment {
	if p.capture {
		p.baseline = leadingIndent(value)
		p.capture = false
	}

	var segs []Segment
	for i, line := range strings.Split(value, "\n") {
		if i > 0 {
			segs = append(segs, Segment{Op: OpNewline})
			p.atNewline = true
		}
		if line == "" {
			continue
		}
		if p.reindent && p.atNewline && p.baseline != "" {
			line = strings.TrimPrefix(line, p.baseline)
		}
		p.atNewline = false
		if line != "" {
			segs = append(segs, Segment{Op: OpText, Text: line, Cat: cat})
		}
	}
	return segs
}

// leadingIndent returns the run of horizontal whitespace at the start
// of value. A value starting mid-indentation or with a newline yields
// an empty baseline, making reindentation a no-op.
func leadingIndent(value string) string {
	for i, r := range value {
		switch r {
		case ' ', '\t', '\f', '\v':
		default:
			return value[:i]
		}
	}
	return value
}

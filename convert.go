package main

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"braces.dev/errtrace"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"go.abhg.dev/bookhilite/internal/errdefer"
	"go.abhg.dev/bookhilite/internal/lexer"
	"go.abhg.dev/bookhilite/internal/rtf"
	"go.abhg.dev/bookhilite/internal/style"
	"go.abhg.dev/bookhilite/internal/tex"
	"go.abhg.dev/bookhilite/internal/token"
)

// run performs one conversion.
// Everything that can fail on bad arguments fails here
// before any output is produced.
func (cmd *mainCmd) run(opts *params) (err error) {
	enc, encErr := ianaindex.IANA.Encoding(opts.Encoding)
	if encErr != nil || enc == nil {
		return errtrace.Errorf("unknown encoding %q", opts.Encoding)
	}

	st := style.Get(opts.Style)
	if st == nil {
		return errtrace.Errorf("unknown style %q: valid values are %q",
			opts.Style, style.Names())
	}

	debugw, closeDebug, err := opts.Debug.Create(cmd.Stderr)
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer func() { err = errors.Join(err, closeDebug()) }()

	var debugLog *log.Logger
	if opts.Debug.Bool() {
		debugLog = log.New(debugw, "lexer: ", 0)
	}

	var lex lexer.Lexer
	switch {
	case opts.Lang != "":
		if lex = lexer.Get(opts.Lang, debugLog); lex == nil {
			return errtrace.Errorf("unknown language %q: valid values are %q",
				opts.Lang, lexer.Names())
		}
	case opts.Input != "-":
		if lex = lexer.Match(opts.Input, debugLog); lex == nil {
			return errtrace.Errorf("cannot guess the language of %q: use -lang",
				opts.Input)
		}
	default:
		return errtrace.New("reading from stdin: use -lang to pick a language")
	}

	format, err := cmd.newFormatter(opts, st, enc)
	if err != nil {
		return errtrace.Wrap(err)
	}

	var src []byte
	if opts.Input == "-" {
		src, err = io.ReadAll(cmd.Stdin)
	} else {
		src, err = os.ReadFile(opts.Input)
	}
	if err != nil {
		return errtrace.Wrap(err)
	}

	text, err := enc.NewDecoder().String(string(src))
	if err != nil {
		return errtrace.Errorf("decode %s: %w", opts.Encoding, err)
	}

	toks, err := lex.Lex(text)
	if err != nil {
		return errtrace.Wrap(err)
	}

	out := cmd.Stdout
	if opts.Output != "" && opts.Output != "-" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return errtrace.Wrap(err)
		}
		defer errdefer.Close(&err, f)
		out = f
	}

	return errtrace.Wrap(format(out, toks))
}

// A formatFunc writes the formatted rendering of a token stream.
type formatFunc func(io.Writer, []token.Token) error

func (cmd *mainCmd) newFormatter(
	opts *params, st *style.Style, enc encoding.Encoding,
) (formatFunc, error) {
	switch opts.Format {
	case "rtf":
		// RTF names its own code page; honor -encoding when it
		// is a single-byte one.
		cm, _ := enc.(*charmap.Charmap)
		f := rtf.New(rtf.Options{
			Style:         st,
			FontFace:      opts.FontFace,
			Encoding:      cm,
			HideByDefault: opts.Hidden,
			Reindent:      opts.Reindent,
		})
		return f.Format, nil

	case "tex":
		preamble := make([]string, len(opts.Preamble))
		for i, l := range opts.Preamble {
			preamble[i] = string(l)
		}
		f, err := tex.New(tex.Options{
			Style:            st,
			CommandPrefix:    opts.CommandPrefix,
			Full:             opts.Full,
			Title:            opts.Title,
			DocClass:         opts.DocClass,
			Preamble:         strings.Join(preamble, "\n"),
			InputEncoding:    opts.Encoding,
			LineNumbers:      opts.LineNumbers,
			LineNumberStart:  opts.LineNoStart,
			LineNumberStep:   opts.LineNoStep,
			VerbEnvironment:  opts.VerbEnv,
			SaveVerbatimName: opts.SaveVerbatim,
			VerbOptions:      opts.VerbOptions,
			TexComments:      opts.TexComments,
			MathEscape:       opts.MathEscape,
			Inline:           opts.Inline,
			HideByDefault:    opts.Hidden,
			Reindent:         opts.Reindent,
		})
		if err != nil {
			return nil, errtrace.Wrap(err)
		}

		if opts.StyleDefs {
			return func(w io.Writer, _ []token.Token) error {
				_, err := io.WriteString(w, f.StyleDefs())
				return errtrace.Wrap(err)
			}, nil
		}

		// LaTeX output is written in the declared input
		// encoding so that inputenc reads it back correctly.
		return func(w io.Writer, toks []token.Token) (err error) {
			tw := transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
			defer errdefer.Close(&err, tw)
			return errtrace.Wrap(f.Format(tw, toks))
		}, nil

	default:
		return nil, errtrace.Errorf("unknown format %q", opts.Format)
	}
}

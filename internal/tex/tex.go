// Package tex formats token streams as LaTeX fragments built on the
// fancyvrb Verbatim environment.
//
// Token text is escaped through a fixed set of \<prefix>Zxx macros so
// that it survives inside Verbatim, and styled runs are wrapped in a
// single \<prefix>{classes}{text} command whose class list names the
// token's category from most general to most specific. StyleDefs
// returns the macro definitions that resolve those classes.
package tex

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"braces.dev/errtrace"

	"go.abhg.dev/bookhilite/internal/render"
	"go.abhg.dev/bookhilite/internal/style"
	"go.abhg.dev/bookhilite/internal/token"
)

// Options configures a Formatter.
type Options struct {
	// Style used to color tokens.
	// Defaults to the book style.
	Style *style.Style

	// CommandPrefix namespaces every generated macro.
	// Defaults to "PY".
	CommandPrefix string

	// Full emits a complete standalone document instead of a
	// fragment: document class, preamble, style definitions and a
	// section title around the code.
	Full     bool
	Title    string
	DocClass string // defaults to "article"
	Preamble string

	// InputEncoding is declared via inputenc in full documents.
	// Defaults to "latin1".
	InputEncoding string

	// LineNumbers enables fancyvrb line numbering, starting at
	// LineNumberStart and printing every LineNumberStep-th number.
	LineNumbers     bool
	LineNumberStart int // defaults to 1
	LineNumberStep  int // defaults to 1

	// VerbEnvironment is the Verbatim variant to wrap the code in.
	// Defaults to "Verbatim".
	VerbEnvironment string

	// SaveVerbatimName is the box name passed to a SaveVerbatim
	// variant of the environment.
	SaveVerbatimName string

	// VerbOptions is appended to the environment's option list.
	VerbOptions string

	// TexComments passes comment text through so LaTeX can render
	// markup written in comments. Only the comment-start lexeme is
	// escaped.
	TexComments bool

	// MathEscape renders $...$ spans inside comments in math mode.
	MathEscape bool

	// Inline drops the \begin/\end environment lines so the output
	// can be spliced into a \verb-like context.
	Inline bool

	// HideByDefault suppresses all code until the first
	// visibility-end marker.
	HideByDefault bool

	// Reindent strips the indentation of the first visible line
	// from the lines that follow it.
	Reindent bool
}

// Formatter writes token streams as LaTeX.
// It is safe for reuse across inputs.
type Formatter struct {
	style *style.Style
	opts  Options
}

// New builds a Formatter, validating the options before any output
// can be produced.
func New(opts Options) (*Formatter, error) {
	if opts.Style == nil {
		opts.Style = style.Book
	}
	if opts.CommandPrefix == "" {
		opts.CommandPrefix = "PY"
	}
	if opts.DocClass == "" {
		opts.DocClass = "article"
	}
	if opts.InputEncoding == "" {
		opts.InputEncoding = "latin1"
	}
	if opts.VerbEnvironment == "" {
		opts.VerbEnvironment = "Verbatim"
	}
	if opts.LineNumberStart == 0 {
		opts.LineNumberStart = 1
	}
	if opts.LineNumberStep == 0 {
		opts.LineNumberStep = 1
	}

	if opts.LineNumberStart < 0 || opts.LineNumberStep < 0 {
		return nil, errtrace.New("line numbers must not be negative")
	}
	if opts.Inline && opts.Full {
		return nil, errtrace.New("inline output cannot be a full document")
	}
	if opts.SaveVerbatimName != "" &&
		!strings.Contains(opts.VerbEnvironment, "SaveVerbatim") {
		return nil, errtrace.Errorf(
			"save name %q needs a SaveVerbatim environment, not %q",
			opts.SaveVerbatimName, opts.VerbEnvironment)
	}

	return &Formatter{style: opts.Style, opts: opts}, nil
}

// Format writes the LaTeX rendering of toks to w.
func (f *Formatter) Format(w io.Writer, toks []token.Token) error {
	var buf bytes.Buffer

	if !f.opts.Inline {
		f.begin(&buf)
	}

	pass := render.NewPass(render.Config{
		HideByDefault: f.opts.HideByDefault,
		Reindent:      f.opts.Reindent,
	})
	var wrote bool
	for _, tok := range toks {
		for _, seg := range pass.Feed(tok) {
			f.segment(&buf, seg)
			wrote = true
		}
	}
	if !wrote {
		// An empty Verbatim body is a LaTeX error.
		buf.WriteString("\n")
	}

	if !f.opts.Inline {
		fmt.Fprintf(&buf, "\\end{%s}\n", f.opts.VerbEnvironment)
	}

	var err error
	if f.opts.Full {
		err = f.document(w, buf.String())
	} else {
		_, err = w.Write(buf.Bytes())
	}
	return errtrace.Wrap(err)
}

func (f *Formatter) begin(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `\begin{%s}[commandchars=\\\{\}`, f.opts.VerbEnvironment)
	if f.opts.LineNumbers {
		fmt.Fprintf(buf, ",numbers=left,firstnumber=%d,stepnumber=%d",
			f.opts.LineNumberStart, f.opts.LineNumberStep)
	}
	if f.opts.MathEscape || f.opts.TexComments {
		buf.WriteString(`,codes={\catcode` + "`" + `\$=3\catcode` + "`" + `\^=7\catcode` + "`" + `\_=8}`)
	}
	if f.opts.VerbOptions != "" {
		buf.WriteString("," + f.opts.VerbOptions)
	}
	buf.WriteString("]")
	if f.opts.SaveVerbatimName != "" {
		buf.WriteString("{" + f.opts.SaveVerbatimName + "}")
	}
	buf.WriteString("\n")
}

func (f *Formatter) segment(buf *bytes.Buffer, seg render.Segment) {
	switch seg.Op {
	case render.OpNewline:
		buf.WriteString("\n")

	case render.OpMarkup:
		buf.WriteString(seg.Text)

	case render.OpText:
		text := f.escapeToken(seg.Text, seg.Cat)
		if classes, ok := f.classes(seg.Cat); ok {
			fmt.Fprintf(buf, "\\%s{%s}{%s}",
				f.opts.CommandPrefix, classes, text)
		} else {
			buf.WriteString(text)
		}
	}
}

// classes returns the "+"-joined category class list, most general
// first, and reports whether any style attribute applies to the
// category at all. Unstyled text is written bare.
func (f *Formatter) classes(cat *token.Category) (string, bool) {
	ent, ok := f.style.Get(cat)
	if !ok || ent.IsZero() {
		return "", false
	}

	var names []string
	for c := cat; c != nil && c != token.Root; c = c.Parent() {
		if short := c.Short(); short != "" {
			names = append(names, short)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "+"), true
}

func (f *Formatter) escapeToken(text string, cat *token.Category) string {
	switch {
	case f.opts.TexComments && cat.In(token.Comment):
		// Escape only the comment-start lexeme, guessed as the
		// run of the leading character, and let LaTeX render
		// the rest.
		i := 1
		for i < len(text) && text[i] == text[0] {
			i++
		}
		return Escape(text[:i], f.opts.CommandPrefix) + text[i:]

	case f.opts.MathEscape && cat.In(token.Comment):
		// $...$ spans alternate in and out of math mode.
		parts := strings.Split(text, "$")
		for i := range parts {
			if i%2 == 0 {
				parts[i] = Escape(parts[i], f.opts.CommandPrefix)
			}
		}
		return strings.Join(parts, "$")

	default:
		return Escape(text, f.opts.CommandPrefix)
	}
}

func (f *Formatter) document(w io.Writer, code string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\\documentclass{%s}\n", f.opts.DocClass)
	buf.WriteString("\\usepackage{fancyvrb}\n\\usepackage{color}\n")
	fmt.Fprintf(&buf, "\\usepackage[%s]{inputenc}\n", f.opts.InputEncoding)
	if f.opts.Preamble != "" {
		buf.WriteString(f.opts.Preamble + "\n")
	}
	buf.WriteString("\n" + f.StyleDefs() + "\n")
	buf.WriteString("\\begin{document}\n\n")
	if f.opts.Title != "" {
		fmt.Fprintf(&buf, "\\section*{%s}\n\n", f.opts.Title)
	}
	buf.WriteString(code)
	buf.WriteString("\\end{document}\n")

	_, err := w.Write(buf.Bytes())
	return errtrace.Wrap(err)
}

var texEscapes = []struct{ from, macro string }{
	{`\`, "Zbs"},
	{`{`, "Zob"},
	{`}`, "Zcb"},
	{`^`, "Zca"},
	{`_`, "Zus"},
	{`&`, "Zam"},
	{`<`, "Zlt"},
	{`>`, "Zgt"},
	{`#`, "Zsh"},
	{`%`, "Zpc"},
	{`$`, "Zdl"},
	{`-`, "Zhy"},
	{`'`, "Zsq"},
	{`"`, "Zdq"},
	{`~`, "Zti"},
}

// Escape rewrites the characters that are unsafe inside a Verbatim
// environment with commandchars into \<prefix>Zxx macro calls.
func Escape(text, prefix string) string {
	var sb strings.Builder
	for _, r := range text {
		esc := ""
		for _, e := range texEscapes {
			if string(r) == e.from {
				esc = e.macro
				break
			}
		}
		if esc == "" {
			sb.WriteRune(r)
		} else {
			sb.WriteString(`\` + prefix + esc + `{}`)
		}
	}
	return sb.String()
}

// Package rtf formats token streams as RTF documents suitable for
// pasting into word processors.
//
// The output is a complete RTF file: a header with a font table and a
// color table built from the active style, followed by the highlighted
// code with one group per styled token run.
package rtf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"braces.dev/errtrace"
	"golang.org/x/text/encoding/charmap"

	"go.abhg.dev/bookhilite/internal/render"
	"go.abhg.dev/bookhilite/internal/style"
	"go.abhg.dev/bookhilite/internal/token"
)

// Options configures a Formatter.
type Options struct {
	// Style used to color tokens.
	// Defaults to the book style.
	Style *style.Style

	// FontFace names the font to request instead of the generic
	// fixed-width default.
	FontFace string

	// Encoding is the single-byte code page used for non-ASCII
	// output. Defaults to ISO 8859-15.
	Encoding *charmap.Charmap

	// HideByDefault suppresses all code until the first
	// visibility-end marker.
	HideByDefault bool

	// Reindent strips the indentation of the first visible line
	// from the lines that follow it.
	Reindent bool
}

// Formatter writes token streams as RTF.
// It is safe for reuse across inputs.
type Formatter struct {
	style    *style.Style
	fontface string
	encoding *charmap.Charmap

	hideByDefault bool
	reindent      bool

	// colors holds the color table in first-seen order over the
	// style's entries. Indices into it are 1-based in the output.
	colors   []style.RGB
	colorIdx map[style.RGB]int
}

// New builds a Formatter for the given options.
func New(opts Options) *Formatter {
	f := &Formatter{
		style:         opts.Style,
		fontface:      opts.FontFace,
		encoding:      opts.Encoding,
		hideByDefault: opts.HideByDefault,
		reindent:      opts.Reindent,
		colorIdx:      make(map[style.RGB]int),
	}
	if f.style == nil {
		f.style = style.Book
	}
	if f.encoding == nil {
		f.encoding = charmap.ISO8859_15
	}

	for _, ent := range f.style.Entries() {
		for _, c := range []*style.RGB{
			ent.Entry.Color,
			ent.Entry.Background,
			ent.Entry.Border,
		} {
			if c == nil {
				continue
			}
			if _, ok := f.colorIdx[*c]; ok {
				continue
			}
			f.colors = append(f.colors, *c)
			f.colorIdx[*c] = len(f.colors)
		}
	}
	return f
}

// Format writes the RTF rendering of toks to w.
func (f *Formatter) Format(w io.Writer, toks []token.Token) error {
	var buf bytes.Buffer
	f.header(&buf)

	pass := render.NewPass(render.Config{
		HideByDefault: f.hideByDefault,
		Reindent:      f.reindent,
	})
	for _, tok := range toks {
		for _, seg := range pass.Feed(tok) {
			f.segment(&buf, seg)
		}
	}

	buf.WriteString("}")
	_, err := w.Write(buf.Bytes())
	return errtrace.Wrap(err)
}

func (f *Formatter) header(buf *bytes.Buffer) {
	buf.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0\fmodern\fprq1\fcharset0`)
	if f.fontface != "" {
		buf.WriteString(" " + escape(f.fontface))
	}
	buf.WriteString(`;}}{\colortbl;`)
	for _, c := range f.colors {
		fmt.Fprintf(buf, `\red%d\green%d\blue%d;`, c.R, c.G, c.B)
	}
	buf.WriteString(`}\f0`)
}

func (f *Formatter) segment(buf *bytes.Buffer, seg render.Segment) {
	switch seg.Op {
	case render.OpNewline:
		buf.WriteString("\\par\n")

	case render.OpMarkup:
		// RTF has no use for typesetting macros. Only the line
		// breaks of a markup comment survive.
		for i := 0; i < strings.Count(seg.Text, "\n"); i++ {
			buf.WriteString("\\par\n")
		}

	case render.OpText:
		ent, ok := f.style.Get(seg.Cat)
		var ctl string
		if ok {
			ctl = f.controls(ent)
		}
		if ctl != "" {
			buf.WriteString("{" + ctl + " ")
		}
		f.escapeText(buf, seg.Text)
		if ctl != "" {
			buf.WriteString("}")
		}
	}
}

func (f *Formatter) controls(ent style.Entry) string {
	var sb strings.Builder
	if ent.Background != nil {
		fmt.Fprintf(&sb, `\cb%d`, f.colorIdx[*ent.Background])
	}
	if ent.Color != nil {
		fmt.Fprintf(&sb, `\cf%d`, f.colorIdx[*ent.Color])
	}
	if ent.Bold {
		sb.WriteString(`\b`)
	}
	if ent.Italic {
		sb.WriteString(`\i`)
	}
	if ent.Underline {
		sb.WriteString(`\ul`)
	}
	if ent.Border != nil {
		fmt.Fprintf(&sb, `\chbrdr\chcfpat%d`, f.colorIdx[*ent.Border])
	}
	return sb.String()
}

// escapeText writes text with RTF escaping. Runes outside ASCII are
// written as a \ud group carrying both the Unicode code point and a
// code-page fallback, with '?' when the rune has no code-page form.
func (f *Formatter) escapeText(buf *bytes.Buffer, text string) {
	for _, r := range text {
		switch {
		case r == '\\' || r == '{' || r == '}':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case r > 128:
			if b, ok := f.encoding.EncodeRune(r); ok && b > 128 {
				fmt.Fprintf(buf, `\ud{\u%d\'%x}`, r, b)
			} else {
				fmt.Fprintf(buf, `\ud{\u%d?}`, r)
			}
		default:
			buf.WriteRune(r)
		}
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `{`, `\{`)
	return strings.ReplaceAll(s, `}`, `\}`)
}

package lexer

import (
	"log"
	"strings"

	"braces.dev/errtrace"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"go.abhg.dev/bookhilite/internal/token"
)

// marker is a book annotation recognized inside an otherwise
// ordinary comment of a delegated language.
type marker struct {
	prefix string
	cat    *token.Category

	// wholeLine consumes the rest of the line, newline included,
	// as a single token of cat. Otherwise the prefix becomes an
	// invisible token of cat and the rest of the line passes
	// through as markup.
	wholeLine bool
}

// delegateLexer tokenizes with a Chroma lexer and overlays the book
// markers on top. Markers are recognized only inside the base lexer's
// line comments, so marker text inside a string literal stays a string.
type delegateLexer struct {
	name    string
	base    chroma.Lexer
	markers []marker
	post    func([]token.Token) []token.Token
	debug   *log.Logger
}

func newPythonLexer(debug *log.Logger) Lexer {
	return &delegateLexer{
		name: "python",
		base: lexers.Get("python"),
		markers: []marker{
			{prefix: "##", cat: token.CommentInvisible},
		},
		debug: debug,
	}
}

func newJavaLexer(debug *log.Logger) Lexer {
	return &delegateLexer{
		name: "java",
		base: lexers.Get("java"),
		markers: []marker{
			{prefix: "///", cat: token.CommentInvisible},
		},
		debug: debug,
	}
}

// gasMarkers are shared by assembly and disassembly listings.
var gasMarkers = []marker{
	{prefix: "##<<", cat: token.CommentInvisibleEnd, wholeLine: true},
	{prefix: "##>>", cat: token.CommentInvisibleBegin, wholeLine: true},
	{prefix: "##", cat: token.CommentInvisible},
}

func newGasLexer(debug *log.Logger) Lexer {
	return &delegateLexer{
		name:    "gas",
		base:    lexers.Get("gas"),
		markers: gasMarkers,
		post:    markRegisterOperands,
		debug:   debug,
	}
}

func newObjdumpLexer(debug *log.Logger) Lexer {
	return &delegateLexer{
		name:    "objdump",
		base:    lexers.Get("objdump"),
		markers: gasMarkers,
		post:    markRegisterOperands,
		debug:   debug,
	}
}

func (l *delegateLexer) Lex(src string) ([]token.Token, error) {
	text := strings.ReplaceAll(src, "\r\n", "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	base, err := l.lexBase(text)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	toks := l.overlay(base)

	if l.post != nil {
		toks = l.post(toks)
	}
	return toks, nil
}

// overlay rewrites line-comment tokens that carry a book marker.
// Multiline and preprocessor comments pass through untouched;
// so does every non-comment token, which keeps marker text inside
// string literals inert.
func (l *delegateLexer) overlay(base []token.Token) []token.Token {
	var toks []token.Token
	for i := 0; i < len(base); i++ {
		t := base[i]
		if !t.Type.In(token.CommentSingle) && t.Type != token.Comment {
			toks = append(toks, t)
			continue
		}

		m, at := l.findMarker(t.Value)
		if m == nil {
			toks = append(toks, t)
			continue
		}
		if at > 0 {
			// Ordinary comment text shares the token
			// with the marker.
			toks = append(toks, token.Token{Type: t.Type, Value: t.Value[:at]})
		}
		rest := t.Value[at:]
		if l.debug != nil {
			l.debug.Printf("%s: marker %q at %d: %q", l.name, m.prefix, at, rest)
		}

		if m.wholeLine {
			// Some base lexers end the comment token before the
			// newline; the marker token carries this line's.
			if !strings.HasSuffix(rest, "\n") && i+1 < len(base) &&
				strings.HasPrefix(base[i+1].Value, "\n") {
				rest += "\n"
				base[i+1].Value = base[i+1].Value[len("\n"):]
				if base[i+1].Value == "" {
					i++
				}
			}
			toks = append(toks, token.Token{Type: m.cat, Value: rest})
			continue
		}

		payload, hadNL := strings.CutSuffix(rest[len(m.prefix):], "\n")
		toks = append(toks,
			token.Token{Type: m.cat, Value: m.prefix},
			token.Token{Type: token.CommentMarkup, Value: payload},
		)
		if hadNL {
			toks = append(toks, token.Token{Type: token.Text, Value: "\n"})
		}
	}
	return toks
}

// findMarker returns the first marker occurring in the comment text,
// earliest match first with declaration order breaking ties.
func (l *delegateLexer) findMarker(text string) (*marker, int) {
	best, bestAt := -1, -1
	for i, m := range l.markers {
		at := strings.Index(text, m.prefix)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt {
			best, bestAt = i, at
		}
	}
	if best < 0 {
		return nil, -1
	}
	return &l.markers[best], bestAt
}

func (l *delegateLexer) lexBase(text string) ([]token.Token, error) {
	it, err := chroma.Coalesce(l.base).Tokenise(nil, text)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	var toks []token.Token
	for t := it(); t != chroma.EOF; t = it() {
		toks = append(toks, token.Token{
			Type:  fromChroma(t.Type),
			Value: t.Value,
		})
	}
	return toks, nil
}

// markRegisterOperands distinguishes source and destination registers
// in AT&T-syntax assembly. The last register operand of an instruction
// is its destination, except for instructions that only read their
// operands.
func markRegisterOperands(toks []token.Token) []token.Token {
	var (
		mnemonic string
		regs     []int
	)
	endLine := func() {
		if len(regs) == 0 {
			mnemonic, regs = "", nil
			return
		}
		last := len(regs) - 1
		if readsOnly(mnemonic) {
			last = len(regs)
		}
		for i, at := range regs {
			if i < last {
				toks[at].Type = token.NameVariableSource
			} else {
				toks[at].Type = token.NameVariableDestination
			}
		}
		mnemonic, regs = "", nil
	}
	for i, t := range toks {
		switch {
		case t.Type == token.NameFunction:
			mnemonic = t.Value
		case t.Type.In(token.NameVariable) && strings.HasPrefix(t.Value, "%"):
			regs = append(regs, i)
		}
		if strings.Contains(t.Value, "\n") {
			endLine()
		}
	}
	endLine()
	return toks
}

// readsOnly reports whether an instruction has no destination
// register: jumps, comparisons, tests and calls.
func readsOnly(mnemonic string) bool {
	for _, prefix := range []string{"j", "cmp", "test", "call", "fcom", "fucom"} {
		if strings.HasPrefix(mnemonic, prefix) {
			return true
		}
	}
	return false
}

// fromChroma translates Chroma token types into the category tree,
// falling back to the nearest mapped ancestor.
func fromChroma(t chroma.TokenType) *token.Category {
	if c, ok := chromaCats[t]; ok {
		return c
	}
	if c, ok := chromaCats[t.SubCategory()]; ok {
		return c
	}
	if c, ok := chromaCats[t.Category()]; ok {
		return c
	}
	return token.Text
}

var chromaCats = map[chroma.TokenType]*token.Category{
	chroma.Text:           token.Text,
	chroma.TextWhitespace: token.Whitespace,
	chroma.Error:          token.Error,
	chroma.Other:          token.Other,

	chroma.Comment:            token.Comment,
	chroma.CommentSingle:      token.CommentSingle,
	chroma.CommentMultiline:   token.CommentMultiline,
	chroma.CommentSpecial:     token.CommentSpecial,
	chroma.CommentPreproc:     token.CommentPreproc,
	chroma.CommentPreprocFile: token.PreprocLibrary,

	chroma.Keyword:            token.Keyword,
	chroma.KeywordType:        token.KeywordType,
	chroma.KeywordReserved:    token.KeywordReserved,
	chroma.KeywordConstant:    token.Keyword,
	chroma.KeywordDeclaration: token.Keyword,
	chroma.KeywordNamespace:   token.Keyword,
	chroma.KeywordPseudo:      token.Keyword,

	chroma.Name:          token.Name,
	chroma.NameBuiltin:   token.NameBuiltin,
	chroma.NameClass:     token.NameClass,
	chroma.NameFunction:  token.NameFunction,
	chroma.NameLabel:     token.NameLabel,
	chroma.NameNamespace: token.NameNamespace,
	chroma.NameVariable:  token.NameVariable,
	chroma.NameConstant:  token.Name,
	chroma.NameDecorator: token.Name,
	chroma.NameAttribute: token.Name,
	chroma.NameException: token.Name,
	chroma.NameTag:       token.Name,

	chroma.Literal:             token.Literal,
	chroma.LiteralDate:         token.Literal,
	chroma.LiteralString:       token.String,
	chroma.LiteralStringChar:   token.StringChar,
	chroma.LiteralStringEscape: token.StringEscape,

	chroma.LiteralNumber:        token.Number,
	chroma.LiteralNumberFloat:   token.NumberFloat,
	chroma.LiteralNumberHex:     token.NumberHex,
	chroma.LiteralNumberInteger: token.NumberInteger,
	chroma.LiteralNumberOct:     token.NumberOct,

	chroma.Operator:     token.Operator,
	chroma.OperatorWord: token.OperatorWord,
	chroma.Punctuation:  token.Punctuation,

	chroma.Generic:           token.Generic,
	chroma.GenericDeleted:    token.GenericDeleted,
	chroma.GenericEmph:       token.GenericEmph,
	chroma.GenericError:      token.GenericError,
	chroma.GenericHeading:    token.GenericHeading,
	chroma.GenericInserted:   token.GenericInserted,
	chroma.GenericOutput:     token.GenericOutput,
	chroma.GenericPrompt:     token.GenericPrompt,
	chroma.GenericStrong:     token.GenericStrong,
	chroma.GenericSubheading: token.GenericSubheading,
	chroma.GenericTraceback:  token.GenericTraceback,
}

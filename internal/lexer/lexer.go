// Package lexer turns source code into streams of categorized tokens.
//
// The C/C++/Cilk grammar is implemented natively as a pushdown rule
// machine because it must discover custom types and keywords while it
// scans. Other languages delegate to Chroma and overlay the book
// markers on top.
package lexer

import (
	"log"
	"path/filepath"
	"sort"
	"strings"

	"go.abhg.dev/bookhilite/internal/token"
)

// Lexer scans source code into tokens.
type Lexer interface {
	// Lex tokenizes src. The concatenated token values reproduce
	// src, save for newline normalization.
	Lex(src string) ([]token.Token, error)
}

// ruleLexer runs a compiled rule machine.
type ruleLexer struct {
	machine *Machine
	debug   *log.Logger
}

func (l *ruleLexer) Lex(src string) ([]token.Token, error) {
	return l.machine.Tokenise(src, l.debug), nil
}

// builders maps language names and aliases to lexer constructors.
var builders = map[string]func(debug *log.Logger) Lexer{
	"cilk": newCilkLexer,
	"c":    newCilkLexer,
	"cpp":  newCilkLexer,
	"c++":  newCilkLexer,

	"python": newPythonLexer,
	"py":     newPythonLexer,

	"java": newJavaLexer,

	"gas": newGasLexer,
	"asm": newGasLexer,
	"s":   newGasLexer,

	"objdump": newObjdumpLexer,
}

// extensions maps file extensions to language names.
var extensions = map[string]string{
	".c": "cilk", ".h": "cilk",
	".cpp": "cilk", ".hpp": "cilk",
	".cc": "cilk", ".hh": "cilk",
	".cxx": "cilk", ".hxx": "cilk",
	".c++": "cilk", ".h++": "cilk",
	".cilk": "cilk",

	".py": "python", ".pyw": "python",

	".java": "java",

	".s": "gas", ".S": "gas", ".asm": "gas",

	".objdump": "objdump",
}

func newCilkLexer(debug *log.Logger) Lexer {
	return &ruleLexer{machine: cilkMachine, debug: debug}
}

// Get returns the lexer registered under the given language name or
// alias, or nil if the name is unknown. Matching is case-insensitive.
func Get(name string, debug *log.Logger) Lexer {
	build, ok := builders[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return build(debug)
}

// Match picks a lexer based on the extension of filename,
// or nil if the extension is unknown.
func Match(filename string, debug *log.Logger) Lexer {
	ext := filepath.Ext(filename)
	lang, ok := extensions[ext]
	if !ok {
		// Extensions are otherwise matched case-insensitively,
		// but .S is assembly too.
		lang, ok = extensions[strings.ToLower(ext)]
	}
	if !ok {
		return nil
	}
	return Get(lang, debug)
}

// Names lists the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/peterbourgon/ff/v3"

	"go.abhg.dev/bookhilite/internal/flagvalue"
)

var (
	errHelp             = flag.ErrHelp
	errInvalidArguments = errors.New("invalid arguments")
)

// params holds all arguments for bookhilite.
type params struct {
	version bool
	help    Help

	Format   string
	Lang     string
	Style    string
	Output   string
	Encoding string

	Hidden   bool
	Reindent bool

	// LaTeX:
	CommandPrefix string
	Inline        bool
	Full          bool
	Title         string
	DocClass      string
	Preamble      []preambleLine
	LineNumbers   bool
	LineNoStart   int
	LineNoStep    int
	VerbEnv       string
	SaveVerbatim  string
	VerbOptions   string
	TexComments   bool
	MathEscape    bool
	StyleDefs     bool

	// RTF:
	FontFace string

	Debug flagvalue.FileSwitch

	// Input is the file to highlight.
	// "-" means stdin.
	Input string
}

// cliParser parses the command line arguments for bookhilite.
type cliParser struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (cmd *cliParser) newFlagSet() (*params, *flag.FlagSet) {
	flag := flag.NewFlagSet("bookhilite", flag.ContinueOnError)
	flag.SetOutput(cmd.Stderr)
	flag.Usage = func() {
		DefaultHelp.Write(cmd.Stderr)
	}

	var p params

	// Conversion:
	flag.StringVar(&p.Format, "format", "tex", "")
	flag.StringVar(&p.Lang, "lang", "", "")
	flag.StringVar(&p.Style, "style", "book", "")
	flag.StringVar(&p.Output, "out", "", "")
	flag.StringVar(&p.Encoding, "encoding", "latin1", "")
	flag.BoolVar(&p.Hidden, "hidden", false, "")
	flag.BoolVar(&p.Reindent, "reindent", false, "")

	// LaTeX output:
	flag.StringVar(&p.CommandPrefix, "command-prefix", "PY", "")
	flag.BoolVar(&p.Inline, "inline", false, "")
	flag.BoolVar(&p.Full, "full", false, "")
	flag.StringVar(&p.Title, "title", "", "")
	flag.StringVar(&p.DocClass, "docclass", "article", "")
	flag.Var(flagvalue.ListOf(&p.Preamble), "preamble", "")
	flag.BoolVar(&p.LineNumbers, "linenos", false, "")
	flag.IntVar(&p.LineNoStart, "lineno-start", 1, "")
	flag.IntVar(&p.LineNoStep, "lineno-step", 1, "")
	flag.StringVar(&p.VerbEnv, "verb-env", "Verbatim", "")
	flag.StringVar(&p.SaveVerbatim, "save-verbatim", "", "")
	flag.StringVar(&p.VerbOptions, "verb-options", "", "")
	flag.BoolVar(&p.TexComments, "texcomments", false, "")
	flag.BoolVar(&p.MathEscape, "mathescape", false, "")
	flag.BoolVar(&p.StyleDefs, "styledefs", false, "")

	// RTF output:
	flag.StringVar(&p.FontFace, "fontface", "", "")

	// Program-level:
	flag.Var(&p.Debug, "debug", "")
	flag.BoolVar(&p.version, "version", false, "")
	flag.Var(&p.help, "help", "")
	flag.Var(&p.help, "h", "")

	return &p, flag
}

func (cmd *cliParser) Parse(args []string) (*params, error) {
	p, flag := cmd.newFlagSet()
	if err := ff.Parse(flag, args, ff.WithEnvVarPrefix("BOOKHILITE")); err != nil {
		return nil, err
	}
	args = flag.Args()

	if p.version {
		fmt.Fprintln(cmd.Stdout, "bookhilite", _version)
		return nil, errHelp
	}

	if p.help == DefaultHelp && len(args) > 0 {
		// The user might have done "-h foo"
		// instead of "-h=foo".
		// If the argument is a known help topic,
		// take it.
		var h Help
		if err := h.Set(args[0]); err == nil {
			p.help = h
		}
	}

	switch p.help {
	case NoHelp:
		// proceed as usual
	default:
		if err := p.help.Write(cmd.Stderr); err != nil {
			fmt.Fprintln(cmd.Stderr, err)
		}
		return nil, errHelp
	}

	switch p.Format {
	case "tex", "rtf":
	default:
		fmt.Fprintf(cmd.Stderr, "unknown format %q: valid values are tex and rtf\n", p.Format)
		return nil, errInvalidArguments
	}

	switch len(args) {
	case 0:
		p.Input = "-"
	case 1:
		p.Input = args[0]
	default:
		fmt.Fprintln(cmd.Stderr, "please provide at most one input file")
		UsageHelp.Write(cmd.Stderr)
		return nil, errInvalidArguments
	}

	return p, nil
}

// preambleLine is a single -preamble argument.
// The flag may be repeated to build up a multi-line preamble.
type preambleLine string

var _ flag.Getter = (*preambleLine)(nil)

func (l *preambleLine) Get() any { return string(*l) }

func (l *preambleLine) String() string { return string(*l) }

func (l *preambleLine) Set(s string) error {
	*l = preambleLine(s)
	return nil
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/bookhilite/internal/iotest"
)

func defaultParams() params {
	return params{
		Format:        "tex",
		Style:         "book",
		Encoding:      "latin1",
		CommandPrefix: "PY",
		DocClass:      "article",
		LineNoStart:   1,
		LineNoStep:    1,
		VerbEnv:       "Verbatim",
		Input:         "-",
	}
}

func TestCLIParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		give []string
		want func(*params)
	}{
		{
			desc: "minimal",
			give: []string{},
			want: func(*params) {},
		},
		{
			desc: "input file",
			give: []string{"fib.cilk"},
			want: func(p *params) { p.Input = "fib.cilk" },
		},
		{
			desc: "many arguments",
			give: []string{
				"-format", "rtf",
				"-style", "plain",
				"-out", "fib.rtf",
				"-fontface", "Courier New",
				"-hidden",
				"-reindent",
				"-debug=log.txt",
				"fib.cilk",
			},
			want: func(p *params) {
				p.Format = "rtf"
				p.Style = "plain"
				p.Output = "fib.rtf"
				p.FontFace = "Courier New"
				p.Hidden = true
				p.Reindent = true
				p.Debug = "log.txt"
				p.Input = "fib.cilk"
			},
		},
		{
			desc: "latex arguments",
			give: []string{
				"-lang", "cilk",
				"-command-prefix", "HL",
				"-inline",
				"-linenos",
				"-lineno-start", "10",
				"-lineno-step", "2",
				"-verb-env", "SaveVerbatim",
				"-save-verbatim", "fib",
				"-verb-options", "frame=single",
				"-texcomments",
				"-mathescape",
			},
			want: func(p *params) {
				p.Lang = "cilk"
				p.CommandPrefix = "HL"
				p.Inline = true
				p.LineNumbers = true
				p.LineNoStart = 10
				p.LineNoStep = 2
				p.VerbEnv = "SaveVerbatim"
				p.SaveVerbatim = "fib"
				p.VerbOptions = "frame=single"
				p.TexComments = true
				p.MathEscape = true
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			got, err := (&cliParser{
				Stdout: iotest.Writer(t),
				Stderr: iotest.Writer(t),
			}).Parse(tt.give)
			require.NoError(t, err)

			want := defaultParams()
			tt.want(&want)
			assert.Equal(t, want, *got)
		})
	}
}

func TestCLIParser_preamble(t *testing.T) {
	t.Parallel()

	got, err := (&cliParser{
		Stdout: iotest.Writer(t),
		Stderr: iotest.Writer(t),
	}).Parse([]string{
		"-full",
		"-preamble", `\usepackage{bookfonts}`,
		"-preamble=\\pagestyle{empty}",
	})
	require.NoError(t, err)

	require.Len(t, got.Preamble, 2)
	assert.Equal(t, preambleLine(`\usepackage{bookfonts}`), got.Preamble[0])
	assert.Equal(t, preambleLine(`\pagestyle{empty}`), got.Preamble[1])
}

func TestCLIParser_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		give []string
	}{
		{
			desc: "unknown flag",
			give: []string{"-this-flag-does-not-exist"},
		},
		{
			desc: "unknown format",
			give: []string{"-format", "html"},
		},
		{
			desc: "too many inputs",
			give: []string{"a.cilk", "b.cilk"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			_, err := (&cliParser{
				Stdout: iotest.Writer(t),
				Stderr: iotest.Writer(t),
			}).Parse(tt.give)
			assert.Error(t, err)
		})
	}
}

func TestCLIParser_envConfig(t *testing.T) {
	t.Setenv("BOOKHILITE_FORMAT", "rtf")
	t.Setenv("BOOKHILITE_STYLE", "plain")

	got, err := (&cliParser{
		Stdout: iotest.Writer(t),
		Stderr: iotest.Writer(t),
	}).Parse([]string{"-style", "book"})
	require.NoError(t, err)

	// The environment fills in unset flags;
	// explicit flags win.
	assert.Equal(t, "rtf", got.Format)
	assert.Equal(t, "book", got.Style)
}

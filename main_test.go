package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/bookhilite/internal/iotest"
)

func TestMainCmd_help(t *testing.T) {
	t.Parallel()

	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(""),
		Stdout: iotest.Writer(t),
		Stderr: iotest.Writer(t),
	}).Run([]string{"-h"})
	assert.Zero(t, exitCode, "-h should have zero status code")
}

func TestMainCmd_version(t *testing.T) {
	t.Parallel()

	var buff bytes.Buffer
	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(""),
		Stdout: &buff,
		Stderr: iotest.Writer(t),
	}).Run([]string{"-version"})
	assert.Zero(t, exitCode, "-version should have zero status code")

	assert.Contains(t, buff.String(), "bookhilite")
	assert.Contains(t, buff.String(), _version)
}

func TestMainCmd_unknownFlag(t *testing.T) {
	t.Parallel()

	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(""),
		Stdout: iotest.Writer(t),
		Stderr: iotest.Writer(t),
	}).Run([]string{"--this-flag-does-not-exist"})
	assert.NotZero(t, exitCode, "unknown flag should have non-zero status code")
}

func TestMainCmd_badArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc    string
		args    []string
		wantErr string
	}{
		{
			desc:    "unknown style",
			args:    []string{"-lang", "cilk", "-style", "solarized"},
			wantErr: `unknown style "solarized"`,
		},
		{
			desc:    "unknown encoding",
			args:    []string{"-lang", "cilk", "-encoding", "ebcdic-nope"},
			wantErr: `unknown encoding "ebcdic-nope"`,
		},
		{
			desc:    "unknown language",
			args:    []string{"-lang", "fortran"},
			wantErr: `unknown language "fortran"`,
		},
		{
			desc:    "stdin needs a language",
			args:    []string{},
			wantErr: "use -lang",
		},
		{
			desc:    "unguessable extension",
			args:    []string{"listing.xyz"},
			wantErr: `cannot guess the language of "listing.xyz"`,
		},
		{
			desc:    "save name without SaveVerbatim",
			args:    []string{"-lang", "cilk", "-save-verbatim", "fib"},
			wantErr: "needs a SaveVerbatim environment",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer
			exitCode := (&mainCmd{
				Stdin:  strings.NewReader(""),
				Stdout: iotest.Writer(t),
				Stderr: &stderr,
			}).Run(tt.args)
			assert.NotZero(t, exitCode)
			assert.Contains(t, stderr.String(), tt.wantErr)
		})
	}
}

func TestMainCmd_texFromStdin(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	exitCode := (&mainCmd{
		Stdin:  strings.NewReader("cilk_spawn fib(n);\n"),
		Stdout: &stdout,
		Stderr: iotest.Writer(t),
	}).Run([]string{"-lang", "cilk"})
	require.Zero(t, exitCode)

	out := stdout.String()
	assert.Contains(t, out, `\begin{Verbatim}[commandchars=\\\{\}]`)
	assert.Contains(t, out, `\PY{k+kCilk}{cilk\PYZus{}spawn}`)
	assert.Contains(t, out, "\\end{Verbatim}\n")
}

func TestMainCmd_rtfToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "fib.cilk")
	require.NoError(t, os.WriteFile(input,
		[]byte("int fib(int n);\n"), 0o644))
	output := filepath.Join(dir, "fib.rtf")

	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(""),
		Stdout: iotest.Writer(t),
		Stderr: iotest.Writer(t),
	}).Run([]string{"-format", "rtf", "-out", output, input})
	require.Zero(t, exitCode)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got, []byte(`{\rtf1\ansi\deff0`)))
	assert.Contains(t, string(got), "fib")
}

func TestMainCmd_hiddenRegions(t *testing.T) {
	t.Parallel()

	const src = "static int bookkeeping;\n" +
		"/// <<\n" +
		"spawned();\n" +
		"/// >>\n" +
		"teardown();\n"

	var stdout bytes.Buffer
	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(src),
		Stdout: &stdout,
		Stderr: iotest.Writer(t),
	}).Run([]string{"-lang", "cilk", "-hidden"})
	require.Zero(t, exitCode)

	out := stdout.String()
	assert.NotContains(t, out, "bookkeeping")
	assert.NotContains(t, out, "teardown")
	assert.Contains(t, out, "spawned")
}

func TestMainCmd_styleDefs(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: iotest.Writer(t),
	}).Run([]string{"-lang", "cilk", "-styledefs", "-command-prefix", "HL"})
	require.Zero(t, exitCode)

	out := stdout.String()
	assert.Contains(t, out, "\\makeatletter")
	assert.Contains(t, out, `\csname HL@tok@k\endcsname`)
	assert.NotContains(t, out, `\begin{Verbatim}`)
}

package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.abhg.dev/bookhilite/internal/token"
)

func concat(toks []token.Token) string {
	var s string
	for _, t := range toks {
		s += t.Value
	}
	return s
}

func TestMachineOrderedChoice(t *testing.T) {
	t.Parallel()

	// Both rules match "ab"; the first declared wins.
	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `ab`, Action: Emit(token.Keyword)},
			{Pattern: `a`, Action: Emit(token.Name)},
			{Pattern: `b`, Action: Emit(token.Name)},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("ab", nil)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Keyword, toks[0].Type)
	assert.Equal(t, "ab", toks[0].Value)
}

func TestMachinePushPop(t *testing.T) {
	t.Parallel()

	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `\(`, Action: Emit(token.Punctuation), Flow: Push("paren")},
			{Pattern: `\w+`, Action: Emit(token.Name)},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
		"paren": {
			{Pattern: `\)`, Action: Emit(token.Punctuation), Flow: Pop},
			{Pattern: `\w+`, Action: Emit(token.Keyword)},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("a (b) c", nil)

	got := make(map[string]*token.Category)
	for _, tok := range toks {
		got[tok.Value] = tok.Type
	}
	assert.Equal(t, token.Name, got["a"], "outside parens")
	assert.Equal(t, token.Keyword, got["b"], "inside parens")
	assert.Equal(t, token.Name, got["c"], "back outside")
}

func TestMachinePopClamp(t *testing.T) {
	t.Parallel()

	// Popping in the outermost state must not underflow.
	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `x`, Action: Emit(token.Name), Flow: Pop},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("x x x", nil)
	var names int
	for _, tok := range toks {
		if tok.Type == token.Name {
			names++
		}
	}
	assert.Equal(t, 3, names)
}

func TestMachineErrorRecovery(t *testing.T) {
	t.Parallel()

	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `\w+`, Action: Emit(token.Name)},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("a @ b", nil)
	require.Len(t, toks, 6) // a, space, @, space, b, newline
	assert.Equal(t, token.Error, toks[2].Type)
	assert.Equal(t, "@", toks[2].Value)
	assert.Equal(t, token.Name, toks[4].Type, "scan resumes after the error")
	assert.Equal(t, "a @ b\n", concat(toks))
}

func TestMachineByGroups(t *testing.T) {
	t.Parallel()

	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `(\w+)(=)(\w+)`,
				Action: ByGroups(Emit(token.Name), Emit(token.Operator), Emit(token.Number))},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("a=1", nil)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, token.Token{Type: token.Name, Value: "a"}, toks[0])
	assert.Equal(t, token.Token{Type: token.Operator, Value: "="}, toks[1])
	assert.Equal(t, token.Token{Type: token.Number, Value: "1"}, toks[2])
}

func TestMachineByGroupsSkipsNilAndUnmatched(t *testing.T) {
	t.Parallel()

	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `(a+)(b+)?(c+)`,
				Action: ByGroups(Emit(token.Name), nil, Emit(token.Keyword))},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("ac", nil)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.Token{Type: token.Name, Value: "a"}, toks[0])
	assert.Equal(t, token.Token{Type: token.Keyword, Value: "c"}, toks[1])

	toks = m.Tokenise("abc", nil)
	for _, tok := range toks {
		assert.NotEqual(t, "b", tok.Value, "nil action discards its group")
	}
}

func TestMachineCustomAction(t *testing.T) {
	t.Parallel()

	// A hand-written action sees the full capture list.
	upper := ActionFunc(func(m *Captures, _ *State) []token.Token {
		return []token.Token{{Type: token.Keyword, Value: strings.ToUpper(m.Groups[1])}}
	})

	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `@(\w+)`, Action: upper},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("@go", nil)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Token{Type: token.Keyword, Value: "GO"}, toks[0])
}

func TestMachineSelf(t *testing.T) {
	t.Parallel()

	m := MustCompile("root", Rules{
		"root": {
			{Pattern: `\[(\w+ ?\w*)\]`, Action: ByGroups(Self("root"))},
			{Pattern: `\w+`, Action: Emit(token.Name)},
			{Pattern: ` `, Action: Emit(token.Text)},
			{Pattern: `\n`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("[a b]", nil)
	var names []string
	for _, tok := range toks {
		if tok.Type == token.Name {
			names = append(names, tok.Value)
		}
	}
	assert.Equal(t, []string{"a", "b"}, names, "bracket content is re-lexed")
	assert.Equal(t, "a b\n", concat(toks), "brackets themselves are discarded")
}

func TestMachineIncludeSplicing(t *testing.T) {
	t.Parallel()

	m := MustCompile("root", Rules{
		"common": {
			{Pattern: `\d+`, Action: Emit(token.Number)},
		},
		"root": {
			Include("common"),
			{Pattern: `\w+`, Action: Emit(token.Name)},
			{Pattern: `\s+`, Action: Emit(token.Text)},
		},
	})

	toks := m.Tokenise("12 ab", nil)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, token.Number, toks[0].Type)
	assert.Equal(t, token.Name, toks[2].Type)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  string
		start string
		rules Rules
	}{
		{
			desc:  "missing start state",
			start: "root",
			rules: Rules{"other": nil},
		},
		{
			desc:  "include cycle",
			start: "a",
			rules: Rules{
				"a": {Include("b")},
				"b": {Include("a")},
			},
		},
		{
			desc:  "include of undefined state",
			start: "a",
			rules: Rules{"a": {Include("nope")}},
		},
		{
			desc:  "transition to undefined state",
			start: "a",
			rules: Rules{
				"a": {{Pattern: `x`, Action: Emit(token.Name), Flow: Push("nope")}},
			},
		},
		{
			desc:  "invalid pattern",
			start: "a",
			rules: Rules{
				"a": {{Pattern: `(`, Action: Emit(token.Name)}},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			_, err := Compile(tt.start, tt.rules)
			assert.Error(t, err)
		})
	}
}

func TestMachineZeroWidthGuard(t *testing.T) {
	t.Parallel()

	// Two states that transition into each other without consuming
	// input must not hang the scan.
	m := MustCompile("a", Rules{
		"a": {{Action: Emit(token.Text), Flow: PopPush("b")}},
		"b": {{Action: Emit(token.Text), Flow: PopPush("a")}},
	})

	toks := m.Tokenise("x", nil)
	assert.Equal(t, "x\n", concat(toks), "input is consumed via error recovery")
}

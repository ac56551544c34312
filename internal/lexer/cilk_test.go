package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.abhg.dev/bookhilite/internal/token"
)

func lexCilk(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := newCilkLexer(nil).Lex(src)
	require.NoError(t, err)
	return toks
}

// typeOf returns the category of the first token with the given value.
func typeOf(t *testing.T, toks []token.Token, value string) *token.Category {
	t.Helper()
	for _, tok := range toks {
		if tok.Value == value {
			return tok.Type
		}
	}
	t.Fatalf("no token with value %q in %v", value, toks)
	return nil
}

func TestCilkTypesComment(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "///Types: Foo\na = Foo;\nb = Bar;\n")

	assert.True(t, toks[0].Type.In(token.CommentInvisible),
		"metadata comment is invisible, got %v", toks[0].Type)
	assert.Equal(t, token.KeywordType, typeOf(t, toks, "Foo"),
		"registered name lexes as a type")
	assert.Equal(t, token.Name, typeOf(t, toks, "Bar"),
		"unregistered name stays plain")
}

func TestCilkTypesBlockComment(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "/*** Types: Foo Qux ***/\na = Qux;\n")

	assert.True(t, toks[0].Type.In(token.CommentInvisible))
	assert.Equal(t, token.KeywordType, typeOf(t, toks, "Qux"))
}

func TestCilkKeywordsComment(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "///Keywords: spawn\na = spawn;\n")

	assert.Equal(t, token.KeywordCustom, typeOf(t, toks, "spawn"))
}

func TestCilkTypesBeforeKeywords(t *testing.T) {
	t.Parallel()

	// A name registered as both resolves as a type.
	toks := lexCilk(t, "///Keywords: Foo\n///Types: Foo\na = Foo;\n")

	assert.Equal(t, token.KeywordType, typeOf(t, toks, "Foo"))
}

func TestCilkVisibilityMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		src  string
		want *token.Category
	}{
		{desc: "begin hidden", src: "/// >>\n", want: token.CommentInvisibleBegin},
		{desc: "end hidden", src: "/// <<\n", want: token.CommentInvisibleEnd},
		{desc: "begin emphasis", src: "/// [[\n", want: token.CommentEmphBegin},
		{desc: "end emphasis", src: "/// ]]\n", want: token.CommentEmphEnd},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			toks := lexCilk(t, tt.src)
			require.NotEmpty(t, toks)
			assert.Equal(t, tt.want, toks[0].Type)
			assert.Equal(t, tt.src, toks[0].Value,
				"marker consumes the whole line")
		})
	}
}

func TestCilkMarkupComment(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "int x;\n/// \\emph{see text}\nint y;\n")

	var marker, markup bool
	for i, tok := range toks {
		if tok.Value == "///" && tok.Type.In(token.CommentInvisible) {
			marker = true
			require.Less(t, i+1, len(toks))
			next := toks[i+1]
			assert.Equal(t, token.CommentMarkup, next.Type)
			assert.Contains(t, next.Value, `\emph{see text}`)
			markup = true
		}
	}
	assert.True(t, marker, "/// marker token present")
	assert.True(t, markup, "markup payload follows the marker")
}

func TestCilkMarkupInsideComment(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "// fib /// \\lipico{3}\n")

	assert.Equal(t, token.CommentMarkup, typeOf(t, toks, ` \lipico{3}`))
	assert.True(t, typeOf(t, toks, "///").In(token.CommentInvisible))
}

func TestCilkLineDirective(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "  #line 5\nint x;\n")

	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.CommentInvisibleBegin, toks[0].Type)
	assert.Equal(t, "  #line", toks[0].Value)
	assert.Equal(t, token.CommentInvisibleEnd, toks[1].Type)
	assert.Equal(t, " 5\n", toks[1].Value)
}

func TestCilkKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc  string
		src   string
		value string
		want  *token.Category
	}{
		{
			desc:  "spawn",
			src:   "x = cilk_spawn fib(n - 1);\n",
			value: "cilk_spawn",
			want:  token.KeywordCilk,
		},
		{
			desc:  "sync",
			src:   "cilk_sync;\n",
			value: "cilk_sync",
			want:  token.KeywordCilk,
		},
		{
			desc:  "predicated for",
			src:   "cilk_for (int i = 0; i < n; ++i) f(i);\n",
			value: "cilk_for",
			want:  token.KeywordCilkPredicated,
		},
		{
			desc:  "predicated if",
			src:   "if (n < 2) return n;\n",
			value: "if",
			want:  token.KeywordPredicated,
		},
		{
			desc:  "plain keyword",
			src:   "return n;\n",
			value: "return",
			want:  token.Keyword,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			toks := lexCilk(t, tt.src)
			assert.Equal(t, tt.want, typeOf(t, toks, tt.value))
		})
	}
}

func TestCilkInclude(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "#include <stdio.h>\n")

	assert.Equal(t, token.PreprocLibrary, typeOf(t, toks, "stdio.h"))
}

func TestCilkMacroDefinition(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "#define MAX(a, b) ((a) > (b) ? (a) : (b))\n")

	assert.Equal(t, token.NameFunction, typeOf(t, toks, "MAX"))

	toks = lexCilk(t, "#define LIMIT 64\n")
	assert.Equal(t, token.NameVariable, typeOf(t, toks, "LIMIT"))
}

func TestCilkFunctionDefinition(t *testing.T) {
	t.Parallel()

	src := "int fib(int n) {\n" +
		"  if (n < 2) return n;\n" +
		"  int x = cilk_spawn fib(n - 1);\n" +
		"  int y = fib(n - 2);\n" +
		"  cilk_sync;\n" +
		"  return x + y;\n" +
		"}\n"
	toks := lexCilk(t, src)

	assert.Equal(t, token.KeywordType, toks[0].Type)
	assert.Equal(t, "int", toks[0].Value)
	assert.Equal(t, token.NameFunction, typeOf(t, toks, "fib"))
	assert.Equal(t, token.NameVariable, typeOf(t, toks, "n"))
	assert.Equal(t, token.KeywordCilk, typeOf(t, toks, "cilk_spawn"))

	assert.Equal(t, src, concat(toks), "token values reproduce the source")
}

func TestCilkStringsAndNumbers(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, `printf("x = %d\n", 0x1F, 3.5, 042, 7);`+"\n")

	var cats []*token.Category
	for _, tok := range toks {
		cats = append(cats, tok.Type)
	}
	assert.Contains(t, cats, token.String)
	assert.Contains(t, cats, token.StringEscape)
	assert.Contains(t, cats, token.NumberHex)
	assert.Contains(t, cats, token.NumberFloat)
	assert.Contains(t, cats, token.NumberOct)
	assert.Contains(t, cats, token.NumberInteger)
}

func TestCilkComments(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "// single\n/* multi\nline */\nint x;\n")

	assert.True(t, typeOf(t, toks, "// single\n").In(token.CommentSingle))
	assert.True(t, typeOf(t, toks, "/* multi\nline */").In(token.CommentMultiline))
}

func TestCilkClassDefinition(t *testing.T) {
	t.Parallel()

	src := "class Point {\n" +
		"public:\n" +
		"  int x;\n" +
		"  Point(int x);\n" +
		"};\n" +
		"Point p;\n"
	toks := lexCilk(t, src)

	var points []*token.Category
	for _, tok := range toks {
		if tok.Value == "Point" {
			points = append(points, tok.Type)
		}
	}
	require.NotEmpty(t, points)
	assert.Equal(t, token.NameClass, points[0], "declaration site")
	assert.Equal(t, token.KeywordType, points[len(points)-1],
		"the class name types later declarations")
}

func TestCilkErrorRecovery(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "int x = 1 @ 2;\n")

	assert.Equal(t, token.Error, typeOf(t, toks, "@"))
	assert.Contains(t, concat(toks), "2;", "scan continues past the error")
}

func TestCilkNewlineNormalization(t *testing.T) {
	t.Parallel()

	toks := lexCilk(t, "int x;\r\nint y;")

	text := concat(toks)
	assert.False(t, strings.Contains(text, "\r"), "CRLF is normalized")
	assert.True(t, strings.HasSuffix(text, "\n"), "trailing newline is ensured")
}

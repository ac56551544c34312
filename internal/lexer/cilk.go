package lexer

import (
	"go.abhg.dev/bookhilite/internal/classify"
	"go.abhg.dev/bookhilite/internal/token"
)

// Whitespace-or-comment fragments shared by many patterns.
const (
	// One or more whitespace runs or comments.
	cilkWS = `(?:\s|//.*?\n|/[*].*?[*]/)+`
	// Exactly one /* */ comment, optionally padded.
	cilkWS1 = `\s*/[*].*?[*]/\s*`
	// Optional whitespace or one /* */ comment.
	cilkWS01 = `\s*|` + cilkWS1
)

// Actions that consult or grow the classifier. These are the only
// rules with side effects; everything else is a pure category emitter.

// registerTypes records the space-separated payload of a
// "Types:" metadata comment and swallows the whole comment.
var registerTypes Action = ActionFunc(func(m *Captures, s *State) []token.Token {
	s.Classifier.RegisterTypeList(m.Groups[5])
	return []token.Token{{Type: token.CommentInvisible, Value: m.Groups[0]}}
})

// registerKeywords is the "Keywords:" counterpart of registerTypes.
var registerKeywords Action = ActionFunc(func(m *Captures, s *State) []token.Token {
	s.Classifier.RegisterKeywordList(m.Groups[5])
	return []token.Token{{Type: token.CommentInvisible, Value: m.Groups[0]}}
})

// declared emits the first group as cat and registers it as a custom
// type, so that later occurrences of the name are recognized.
func declared(cat *token.Category) Action {
	return ActionFunc(func(m *Captures, s *State) []token.Token {
		s.Classifier.RegisterType(m.Groups[1])
		return []token.Token{{Type: cat, Value: m.Groups[1]}}
	})
}

// classified emits the first group as a custom type or keyword if the
// classifier knows the name, and as fallback otherwise.
func classified(fallback *token.Category) Action {
	return ActionFunc(func(m *Captures, s *State) []token.Token {
		cat := fallback
		switch s.Classifier.Classify(m.Groups[1]) {
		case classify.Type:
			cat = token.KeywordType
		case classify.Keyword:
			cat = token.KeywordCustom
		}
		return []token.Token{{Type: cat, Value: m.Groups[1]}}
	})
}

var (
	typedefName   = declared(token.KeywordType)
	className     = declared(token.NameClass)
	variableName  = classified(token.NameVariable)
	functionName  = classified(token.NameFunction)
	plainName     = classified(token.Name)
	namespaceName = classified(token.NameNamespace)
)

// cilkMachine is the extended C/C++ grammar: full C++ tokenization
// plus Cilk concurrency keywords, book visibility and metadata
// comments, and classifier-aware identifier rules.
var cilkMachine = MustCompile("root", Rules{
	"whitespace": {
		// #line directives are build artifacts; make them zero-width
		// in rendered output.
		{Pattern: `^(` + cilkWS + `#line)(\s+\d\n)`,
			Action: ByGroups(Emit(token.CommentInvisibleBegin), Emit(token.CommentInvisibleEnd))},

		// Metadata comments feeding the classifier.
		{Pattern: `([ \t\f\v]*/(\\\n)?/(\\\n)?/(\s*Types:))(.*?[^\\]\n)`,
			Action: registerTypes},
		{Pattern: `([ \t\f\v]*/([*][*][*])((\s*)Types:))(.*?)([*](\\\n)?[*](\\\n)?[*](\\\n)?/)`,
			Action: registerTypes},
		{Pattern: `([ \t\f\v]*/(\\\n)?/(\\\n)?/(\s*Keywords:))(.*?[^\\]\n)`,
			Action: registerKeywords},

		// Whole-line visibility markers. "<<" ends a hidden region,
		// ">>" begins one. Backslash continuations extend the line.
		{Pattern: `[ \t\f\v]*/(\\\n)?/(\\\n)?/(\s*<<)(\n|(.|\n)*?[^\\]\n)`,
			Action: Emit(token.CommentInvisibleEnd)},
		{Pattern: `[ \t\f\v]*/(\\\n)?/(\\\n)?/(\s*>>)(\n|(.|\n)*?[^\\]\n)`,
			Action: Emit(token.CommentInvisibleBegin)},

		// Emphasis markers for blocks of code.
		{Pattern: `[ \t\f\v]*/(\\\n)?/(\\\n)?/(\s*\[\[)(\n|(.|\n)*?[^\\]\n)`,
			Action: Emit(token.CommentEmphBegin)},
		{Pattern: `[ \t\f\v]*/(\\\n)?/(\\\n)?/(\s*\]\])(\n|(.|\n)*?[^\\]\n)`,
			Action: Emit(token.CommentEmphEnd)},

		// A bare /// comment: the marker disappears and the payload
		// passes through to the typeset document as-is.
		{Pattern: `[ \t\f\v]*(/(\\\n)?/(\\\n)?/)(.*?[^\\]\n)`,
			Action: ByGroups(Emit(token.CommentInvisible), nil, nil, Emit(token.CommentMarkup))},

		{Pattern: `(\\[a-zA-Z_][^\n]*?)(\n)`,
			Action: ByGroups(Emit(token.CommentMarkup), Emit(token.Text))},

		// An /// marker inside an ordinary // comment.
		{Pattern: `(//)([^\n]*?)(///)([^\n]*?)(\n)`,
			Action: ByGroups(Emit(token.CommentSingle), Emit(token.CommentSingle),
				Emit(token.CommentInvisible), Emit(token.CommentMarkup), Emit(token.CommentSingle))},

		// Standard C/C++ whitespace handling.
		{Pattern: `^#if\s+0`, Action: Emit(token.CommentPreproc), Flow: Push("if0")},
		{Pattern: `^#`, Action: Emit(token.CommentPreproc), Flow: Push("macro")},
		{Pattern: `^(` + cilkWS1 + `)(#if\s+0)`,
			Action: ByGroups(Self("root"), Emit(token.CommentPreproc)), Flow: Push("if0")},
		{Pattern: `^(` + cilkWS1 + `)(#)`,
			Action: ByGroups(Self("root"), Emit(token.CommentPreproc)), Flow: Push("macro")},
		{Pattern: `^(\s*)([a-zA-Z_][a-zA-Z0-9_]*:(?!:))`,
			Action: ByGroups(Emit(token.Text), Emit(token.NameLabel))},
		{Pattern: `\n`, Action: Emit(token.Text)},
		{Pattern: `\s+`, Action: Emit(token.Text)},
		{Pattern: `\\\n`, Action: Emit(token.Text)},
		{Pattern: `//(\n|(.|\n)*?[^\\]\n)`, Action: Emit(token.CommentSingle)},
		{Pattern: `/(\\\n)?[*](.|\n)*?[*](\\\n)?/`, Action: Emit(token.CommentMultiline)},

		{Pattern: `^([ \t\f\v]*)(#)`,
			Action: ByGroups(Emit(token.Text), Emit(token.CommentPreproc)), Flow: Push("macro")},
	},
	"macro": {
		{Pattern: `(include)(\s*)([<])(\s*)([a-zA-Z0-9._/-]+)(\s*)([>])`,
			Action: ByGroups(Emit(token.CommentPreproc),
				Self("root"), Emit(token.CommentPreproc), Self("root"),
				Emit(token.PreprocLibrary),
				Self("root"), Emit(token.CommentPreproc))},
		{Pattern: `(include)(\s*)(["])(\s*)([a-zA-Z0-9._/-]+)(\s*)(["])`,
			Action: ByGroups(Emit(token.CommentPreproc),
				Self("root"), Emit(token.CommentPreproc), Self("root"),
				Emit(token.PreprocLibrary),
				Self("root"), Emit(token.CommentPreproc))},

		// Function-like macros.
		{Pattern: `(define)(\s+)([a-zA-Z_][a-zA-Z0-9_]*)` +
			`(\s*)(\()` +
			`(?=(\s*[a-zA-Z_][a-zA-Z0-9_]*)+(\s*[,]\s*[a-zA-Z_][a-zA-Z0-9_]*)*(\s*\)))`,
			Action: ByGroups(Emit(token.CommentPreproc), Emit(token.Text), Emit(token.NameFunction),
				Emit(token.Text), Emit(token.Punctuation)),
			Flow: PopPush("macro-def-compute", "macro-arglist")},
		// Object-like macros.
		{Pattern: `(define)(\s+)([a-zA-Z_][a-zA-Z0-9_]*)`,
			Action: ByGroups(Emit(token.CommentPreproc), Emit(token.Text), Emit(token.NameVariable)),
			Flow:   PopPush("macro-def-compute")},

		{Pattern: `(///)(.*?\n)`,
			Action: ByGroups(Emit(token.CommentInvisible), Emit(token.CommentMarkup)), Flow: Pop},
		{Pattern: `([\\][a-zA-Z_][^\n]*?)(\n)`,
			Action: ByGroups(Emit(token.CommentMarkup), Emit(token.Text))},

		{Pattern: `[^/\n]+`, Action: Emit(token.CommentPreproc)},
		{Pattern: `/[*](.|\n)*?[*]/`, Action: Emit(token.CommentMultiline)},
		{Pattern: `//.*?\n`, Action: Emit(token.CommentSingle), Flow: Pop},
		{Pattern: `/`, Action: Emit(token.CommentPreproc)},
		{Pattern: `(?<=\\)\n`, Action: Emit(token.CommentPreproc)},
		{Pattern: `\n`, Action: Emit(token.CommentPreproc), Flow: Pop},
	},
	"macro-arglist": {
		{Pattern: `(\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*)`,
			Action: ByGroups(Self("root"), Emit(token.NameVariable), Self("root"))},
		{Pattern: `(\,)`, Action: Emit(token.Punctuation)},
		{Pattern: `(\))`, Action: Emit(token.Punctuation), Flow: Pop},
		// Macro argument lists allow nested parens.
		{Pattern: `(\()`, Action: Emit(token.Punctuation), Flow: Push()},
	},
	"macro-def-compute": {
		{Pattern: `[#]`, Action: Emit(token.Operator)},
		{Pattern: `[(),]`, Action: Emit(token.Punctuation)},
		{Pattern: `[ \t\f\v]*(/(\\\n)?/(\\\n)?/)(.*?[^\\]\n)`,
			Action: ByGroups(Emit(token.CommentInvisible), nil, nil, Emit(token.CommentMarkup)),
			Flow:   Pop},
		{Pattern: `\\\s*\n`, Action: Emit(token.CommentPreproc)},
		{Pattern: `\s*\n`, Action: Emit(token.CommentPreproc), Flow: Pop},
		Include("whitespace"),
		Include("statements"),
		Include("parentheses"),
	},
	"if0": {
		{Pattern: `^\s*#if.*?(?<!\\)\n`, Action: Emit(token.CommentPreproc), Flow: Push()},
		{Pattern: `^\s*#el(?:se|if).*\n`, Action: Emit(token.CommentPreproc), Flow: Pop},
		{Pattern: `^\s*#endif.*?(?<!\\)\n`, Action: Emit(token.CommentPreproc), Flow: Pop},
		{Pattern: `.*?\n`, Action: Emit(token.Comment)},
	},
	"using": {
		Include("whitespace"),
		Include("namespace"),
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)`, Action: Emit(token.NameNamespace)},
		{Action: Emit(token.Text), Flow: Pop},
	},
	"keywords": {
		{Pattern: `(namespace)\b(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*)` +
			`(\s+|` + cilkWS1 + `)([{])`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.NameNamespace),
				Self("root"), Emit(token.Punctuation)),
			Flow: Push("root")},
		{Pattern: `(namespace)\b(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*)`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.NameNamespace))},

		{Pattern: `(template)\b(\s*|` + cilkWS1 + `)*?([<])`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("template")},

		// Keywords whose predicate opens a nested scope.
		{Pattern: `(switch)\b` +
			`(` + cilkWS01 + `)*?(\()`,
			Action: ByGroups(Emit(token.KeywordPredicated), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("switch-pred")},
		{Pattern: `(while|if)\b` +
			`(` + cilkWS01 + `)*?(\()`,
			Action: ByGroups(Emit(token.KeywordPredicated), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("block")},
		{Pattern: `(for)\b` +
			`(` + cilkWS01 + `)*?(\()`,
			Action: ByGroups(Emit(token.KeywordPredicated), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("block-for")},
		{Pattern: `(pipe_while)\b` +
			`(` + cilkWS01 + `)*?(\()`,
			Action: ByGroups(Emit(token.KeywordPredicated), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("block")},
		{Pattern: `(cilk_for|pipe_for)\b` +
			`(` + cilkWS01 + `)*?(\()`,
			Action: ByGroups(Emit(token.KeywordCilkPredicated), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("block-for")},

		{Pattern: `typedef\b`, Action: Emit(token.Keyword), Flow: Push("typedef")},

		{Pattern: `(class)` +
			`(?=(\s+|` + cilkWS1 + `)[a-zA-Z_][a-zA-Z0-9_]*)`,
			Action: Emit(token.Keyword), Flow: Push("classname")},

		{Pattern: `(struct|union)(?=(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*[a-zA-Z0-9_:*,\s]*?)?[<{])`,
			Action: Emit(token.Keyword), Flow: Push("struct")},
		{Pattern: `(struct|union)(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*)`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.KeywordType)),
			Flow:   Push("variable")},

		{Pattern: `(enum)`, Action: Emit(token.Keyword), Flow: Push("enum")},

		{Pattern: `(extern)(` + cilkWS01 + `)(L?")`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.String)),
			Flow:   Push("string")},
		{Pattern: `(extern)(\s*)(L?'(\\.|\\[0-7]{1,3}|\\x[a-fA-F0-9]{1,2}|[^\\\'\n])')`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.StringChar), nil)},

		// C++11 type deduction introduces a variable.
		{Pattern: `(auto)` +
			`(?=(?:([*&\s]+|` + cilkWS1 + `)?[a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.Keyword), Flow: Push("variable")},

		{Pattern: `(auto|break|case|const|continue|default|do|else|enum|extern|` +
			`for|goto|if|register|restricted|return|sizeof|static|struct|` +
			`switch|typedef|union|volatile|while)\b`, Action: Emit(token.Keyword)},
		{Pattern: `(_{0,2}(inline|naked|restrict|thread|typename))\b`, Action: Emit(token.KeywordReserved)},
		// Vector intrinsics.
		{Pattern: `(__(m128i|m128d|m128|m64))\b`, Action: Emit(token.KeywordReserved)},
		// Microsoft-isms.
		{Pattern: `__(asm|int8|based|except|int16|stdcall|cdecl|fastcall|int32|` +
			`declspec|finally|int64|try|leave|wchar_t|w64|unaligned|` +
			`raise|noop|identifier|forceinline|assume)\b`, Action: Emit(token.KeywordReserved)},
		{Pattern: `(asm|catch|const_cast|delete|dynamic_cast|explicit|` +
			`export|friend|mutable|namespace|new|operator|` +
			`private|protected|public|reinterpret_cast|` +
			`restrict|static_cast|template|this|throw|throws|` +
			`typeid|typename|using|virtual)\b`, Action: Emit(token.Keyword)},
		// GCC-isms.
		{Pattern: `__(attribute)__\b`, Action: Emit(token.Keyword)},

		// The Cilk concurrency keywords.
		{Pattern: `(cilk_spawn|cilk_sync|cilk_for|` +
			`_Cilk_spawn|_Cilk_sync)\b`, Action: Emit(token.KeywordCilk)},
	},
	"namespace": {
		{Pattern: `(std)(::)`, Action: ByGroups(Emit(token.NameNamespace), Emit(token.Operator))},
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(?=\s*::)`, Action: namespaceName},
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(` + cilkWS01 + `)([<])` +
			`(?=(?:[^;{}()~!%^&+=|?/\-]+?[>])(?:(` + cilkWS01 + `)*?(::)(` + cilkWS01 + `)*?)` +
			`(?:[a-zA-Z_][a-zA-Z0-9_]*\b))`,
			Action: ByGroups(Emit(token.KeywordType), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("type")},
		{Pattern: `::`, Action: Emit(token.Operator)},
	},
	"typekeyword": {
		Include("namespace"),
		{Pattern: `(bool|int|long|float|short|double|char|unsigned|signed|void|` +
			`[a-zA-Z_][a-zA-Z0-9_]*_t)\b`,
			Action: Emit(token.KeywordType)},
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:(` + cilkWS01 + `)[<][^;{}()~!%^+=|?/\-]+?[>])?(?:[\s*&]+?)(?:[a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType)},
	},
	"switch-pred": {
		{Pattern: `(\))(.*?)({)`,
			Action: ByGroups(Emit(token.Punctuation), Self("root"), Emit(token.Punctuation)),
			Flow:   PopPush("switch")},
		Include("block"),
	},
	"switch": {
		// "default:" would otherwise lex as a goto label.
		{Pattern: `^(\s*)(default)(\s*)(:)`,
			Action: ByGroups(Emit(token.Text), Emit(token.Keyword), Emit(token.Text), Emit(token.Punctuation))},

		Include("whitespace"),
		{Pattern: `\b(case)(.+?)(:)`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.Punctuation))},
		Include("keywords"),

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:(` + cilkWS01 + `)*?[<][^;{}()~!%^&+=|?<>/\-]+?[>])?(?:[\s*&]+?)(?:[a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType), Flow: Push("variable")},

		{Pattern: `[~!%^&*+=|?:<>/-]`, Action: Emit(token.Operator), Flow: PopPush("switch-novardef")},

		{Pattern: `[\]]`, Action: Emit(token.Error)},
		Include("type-cast"),
		Include("parentheses"),

		{Pattern: `[;,]`, Action: Emit(token.Punctuation)},

		Include("statements"),
	},
	"switch-novardef": {
		Include("whitespace"),
		Include("keywords"),
		Include("statements"),
		{Action: Emit(token.Text), Flow: PopPush("switch")},
	},
	"classname": {
		Include("whitespace"),
		Include("namespace"),

		{Pattern: `(private|public|protected)`, Action: Emit(token.Keyword)},
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: className},

		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `[>]`, Action: Emit(token.Error)},

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: PopPush("class")},
		{Pattern: `[}]`, Action: Emit(token.Error)},

		{Pattern: `:`, Action: Emit(token.Operator)},
		{Action: Emit(token.Text), Flow: Pop},
	},
	"struct": {
		Include("whitespace"),
		Include("namespace"),

		{Pattern: `(private|public|protected)`, Action: Emit(token.Keyword)},
		// C++ (unlike C) makes struct names usable as types directly.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: typedefName},

		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `[>]`, Action: Emit(token.Error)},

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: PopPush("class")},
		{Pattern: `[}]`, Action: Emit(token.Error)},

		{Pattern: `:`, Action: Emit(token.Operator)},
		{Action: Emit(token.Text), Flow: Pop},
	},
	"enum": {
		Include("whitespace"),
		Include("namespace"),

		// C++11 scoped enums.
		{Pattern: `class`, Action: Emit(token.Keyword)},

		// A curly brace after the name means this defines the type
		// rather than a variable of the type.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(?=(\s*)[{])`, Action: typedefName},

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: PopPush("enum-decls")},
		{Pattern: `[}]`, Action: Emit(token.Error)},

		{Pattern: `[;]`, Action: Emit(token.Punctuation), Flow: Pop},

		Include("variable"),

		{Action: Emit(token.Text), Flow: Pop},
	},
	"enum-decls": {
		Include("whitespace"),
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: Emit(token.NameVariable)},
		{Pattern: `[=]`, Action: Emit(token.Operator), Flow: Push("assignment")},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},
		{Pattern: `[}]`, Action: Emit(token.Punctuation), Flow: Pop},
	},
	"type": {
		Include("whitespace"),
		Include("namespace"),

		{Pattern: `(class|typename)`, Action: Emit(token.Keyword), Flow: Push("typename")},

		Include("keywords"),
		Include("typekeyword"),

		{Pattern: `(true|false|NULL)\b`, Action: Emit(token.NameBuiltin)},

		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push()},
		{Pattern: `[>]`, Action: Emit(token.Punctuation), Flow: Pop},
		{Pattern: `[*]`, Action: Emit(token.Operator)},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},

		// A name followed by a star is almost certainly a type here.
		{Pattern: `([a-zA-Z][a-zA-Z0-9_]*)(?=(?:\s*[*]))`, Action: Emit(token.KeywordType)},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)`, Action: plainName},
	},
	"typedef": {
		Include("whitespace"),
		{Pattern: `(class|struct|union|typename)\b`, Action: Emit(token.Keyword)},

		Include("keywords"),
		Include("typekeyword"),

		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `[>]`, Action: Emit(token.Punctuation)},
		{Pattern: `[*]`, Action: Emit(token.Operator)},

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: Push("block")},
		{Pattern: `[}]`, Action: Emit(token.Error)},

		{Pattern: `([a-zA-Z][a-zA-Z0-9_]*)`, Action: typedefName},

		{Action: Emit(token.Text), Flow: Pop},
	},
	"template": {
		Include("whitespace"),
		{Pattern: `(class|typename)`, Action: Emit(token.Keyword), Flow: Push("typename")},
		{Pattern: `[>]`, Action: Emit(token.Punctuation), Flow: Pop},

		{Pattern: `(struct|union)(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*\b)`,
			Action: ByGroups(Emit(token.Keyword), Emit(token.Text), Emit(token.KeywordType)),
			Flow:   PopPush("template-args")},

		Include("keywords"),

		Include("namespace"),
		{Pattern: `(bool|int|long|float|short|double|char|unsigned|signed|void|` +
			`[a-zA-Z_][a-zA-Z0-9_]*_t)\b`,
			Action: Emit(token.KeywordType), Flow: PopPush("template-args")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:\s*[<][^;{}()~!%^+=|?/\-]+?[>]))`,
			Action: Emit(token.KeywordType), Flow: PopPush("template-args")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: Emit(token.KeywordType), Flow: PopPush("template-args")},

		{Pattern: `[*&]`, Action: Emit(token.Operator)},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},
	},
	"template-args": {
		{Pattern: `[>]`, Action: Emit(token.Punctuation), Flow: Pop},
		{Pattern: `[,]`, Action: Emit(token.Punctuation), Flow: PopPush("template")},
		Include("function-args"),
	},
	"typename-statement": {
		Include("whitespace"),

		{Pattern: `(std)(::)`, Action: ByGroups(Emit(token.NameNamespace), Emit(token.Operator))},
		{Pattern: `([<])`, Action: Emit(token.Punctuation), Flow: Push("type")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:[<][^;{}()~!%^&+=|?/\-]+?[>])?(?:(` + cilkWS01 + `)*?::(` + cilkWS01 + `)*?))`,
			Action: Emit(token.KeywordType)},
		{Pattern: `(::)`, Action: Emit(token.Operator)},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=\s+([a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType), Flow: PopPush("variable")},
	},
	"typename-function-args": {
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:[<][^;{}()~!%^&+=|?/\-]+?[>])?([\s*&]+?)([a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType), Flow: PopPush("function-args")},

		Include("typename-statement"),
	},
	"typename": {
		Include("whitespace"),
		{Pattern: `(std)(::)`, Action: ByGroups(Emit(token.NameNamespace), Emit(token.Operator))},
		{Pattern: `([<])`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `[,]`, Action: Emit(token.Punctuation), Flow: Pop},
		{Pattern: `[=]`, Action: Emit(token.Operator), Flow: Push("assignment-type")},
		{Pattern: `(::)`, Action: Emit(token.Operator)},
		{Pattern: `(\s*)(?=[>)])`, Action: Emit(token.Text), Flow: Pop},
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: typedefName},
	},
	"assignment-type": {
		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `(\s*)(?=[>,])`, Action: Emit(token.Text), Flow: Pop},
		Include("type"),
	},
	"decl": {
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(?=\s*[(])\b`, Action: functionName},
		{Pattern: `([(])`, Action: Emit(token.Punctuation), Flow: PopPush("function-args-start")},
		Include("variable"),
	},
	"variable": {
		Include("whitespace"),

		{Pattern: `(struct|union)(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*\b)`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.KeywordType))},

		Include("keywords"),

		// Function pointers.
		{Pattern: `([(])(\s*)([*])(\s*)([a-zA-Z_][a-zA-Z0-9_]*\b)`,
			Action: ByGroups(Emit(token.Punctuation), Emit(token.Text), Emit(token.Operator),
				Emit(token.Text), Emit(token.NameVariable)),
			Flow: Push("function-ptr")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=\s*__attribute__)`, Action: variableName},

		Include("typekeyword"),

		{Pattern: `[*&]`, Action: Emit(token.Operator)},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},
		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `[>]`, Action: Emit(token.Error)},

		{Pattern: `[\[]`, Action: Emit(token.Operator), Flow: Push("statement")},
		{Pattern: `[\]]`, Action: Emit(token.Error)},

		Include("parentheses"),

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(?=\s*[=])\b`, Action: variableName},
		// Multiple variable definitions with assignments
		// can share one line.
		{Pattern: `=`, Action: Emit(token.Operator), Flow: Push("assignment")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(?=\s*[:]\s*\d+[LlUu]*)\b`, Action: variableName},
		// Bit fields.
		{Pattern: `(:)(\s*)(\d+[LlUu]*)`,
			Action: ByGroups(Emit(token.Punctuation), Emit(token.Text), Emit(token.NumberInteger))},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(?=\s*[,;])\b`, Action: variableName},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: variableName},

		{Pattern: `=`, Action: Emit(token.Operator), Flow: Push("assignment")},
		{Pattern: `(?=[;])`, Action: Emit(token.Text), Flow: Pop},

		{Action: Emit(token.Text), Flow: PopPush("statement")},
	},
	"function-ptr": {
		Include("whitespace"),
		{Pattern: `[(]`, Action: Emit(token.Punctuation), Flow: PopPush("function-args-start")},
		{Pattern: `([)])(\s*)([(])`,
			Action: ByGroups(Emit(token.Punctuation), Emit(token.Text), Emit(token.Punctuation)),
			Flow:   PopPush("function-ptr-args-start")},
	},
	"function-ptr-args-start": {
		Include("whitespace"),

		{Pattern: `(struct|union)(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*\b)`,
			Action: ByGroups(Emit(token.Keyword), Emit(token.Text), Emit(token.KeywordType)),
			Flow:   PopPush("function-ptr-args")},

		Include("keywords"),

		Include("namespace"),
		{Pattern: `(bool|int|long|float|short|double|char|unsigned|signed|void|` +
			`[a-zA-Z_][a-zA-Z0-9_]*_t)\b`,
			Action: Emit(token.KeywordType), Flow: PopPush("function-ptr-args")},
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:\s*[<][^;{}()~!%^+=|?/\-]+?[>]))`,
			Action: Emit(token.KeywordType), Flow: PopPush("function-ptr-args")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: Emit(token.KeywordType), Flow: PopPush("function-ptr-args")},

		{Pattern: `[*&]`, Action: Emit(token.Operator)},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},
		{Pattern: `[)]`, Action: Emit(token.Punctuation), Flow: PopPush("function-ptr-end")},
	},
	"function-ptr-args": {
		{Pattern: `[,]`, Action: Emit(token.Punctuation), Flow: PopPush("function-ptr-args-start")},
		{Pattern: `[)]`, Action: Emit(token.Punctuation), Flow: PopPush("function-ptr-end")},
		Include("variable"),
	},
	"function-ptr-end": {
		Include("whitespace"),

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: PopPush("block")},
		{Pattern: `[,;]`, Action: Emit(token.Punctuation), Flow: Pop},

		Include("parentheses"),
	},
	"assignment": {
		Include("whitespace"),
		Include("statements"),

		{Pattern: `[\[]`, Action: Emit(token.Operator), Flow: Push()},
		{Pattern: `[\]]`, Action: Emit(token.Operator), Flow: Pop},

		Include("type-cast"),
		// Early termination of an assignment.
		{Pattern: `(\s*)(?=[)}>])`, Action: Emit(token.Text), Flow: Pop},
		Include("parentheses"),

		{Pattern: `[,]`, Action: Emit(token.Punctuation), Flow: Pop},
		{Pattern: `(?=[;])`, Action: Emit(token.Text), Flow: Pop},
		{Action: Emit(token.Text), Flow: Pop},
	},
	"statements": {
		{Pattern: `L?"`, Action: Emit(token.String), Flow: Push("string")},
		{Pattern: `L?'(\\.|\\[0-7]{1,3}|\\x[a-fA-F0-9]{1,2}|[^\\\'\n])'`, Action: Emit(token.StringChar)},
		{Pattern: `(\d+\.\d*|\.\d+|\d+)[eE][+-]?\d+[LlUu]*`, Action: Emit(token.NumberFloat)},
		{Pattern: `(\d+\.\d*|\.\d+|\d+[fF])[fF]?`, Action: Emit(token.NumberFloat)},
		{Pattern: `0x[0-9a-fA-F]+[LlUu]*`, Action: Emit(token.NumberHex)},
		{Pattern: `0[0-7]+[LlUu]*`, Action: Emit(token.NumberOct)},
		{Pattern: `\d+[LlUu]*`, Action: Emit(token.NumberInteger)},

		{Pattern: `(using)`, Action: Emit(token.Keyword), Flow: Push("using")},

		{Pattern: `(typename)`, Action: Emit(token.KeywordReserved), Flow: Push("typename-statement")},

		Include("namespace"),
		Include("keywords"),

		{Pattern: `(bool|int|long|float|short|double|char|unsigned|signed|void|` +
			`[a-zA-Z_][a-zA-Z0-9_]*_t)\b`,
			Action: Emit(token.KeywordType)},

		{Pattern: `(true|false|NULL)\b`, Action: Emit(token.NameBuiltin)},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(` + cilkWS01 + `)*?([<])` +
			`(?=(?:[^;{}()~!%^&+=|?/-]+?[>]))`,
			Action: ByGroups(Emit(token.KeywordType), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("type")},

		// Calling a constructor does not color the constructor
		// name as a type.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(` + cilkWS01 + `)(\())`, Action: Emit(token.Name)},

		// A bare identifier may be a discovered custom type or keyword.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)`, Action: plainName},

		{Pattern: `\*/`, Action: Emit(token.Error)},
		{Pattern: `[~!%^&*+=|?:<>/-]`, Action: Emit(token.Operator)},

		// Neither a type nor a keyword is immediately preceded by a dot.
		{Pattern: `([.])([a-zA-Z_][a-zA-Z0-9_]+)\b`,
			Action: ByGroups(Emit(token.Operator), Emit(token.Name))},
		{Pattern: `[.]`, Action: Emit(token.Operator)},
	},
	"root": {
		Include("whitespace"),
		Include("keywords"),

		// Conservative type inference at file scope.
		{Pattern: `(bool|int|long|float|short|double|char|unsigned|signed|void|` +
			`[a-zA-Z_][a-zA-Z0-9_]*_t)\b` +
			`(?=(?:[*&\s]+?[a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType), Flow: Push("decl")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:\s*[<][^;{}()~!%^+=|?/\-]+?[>])` +
			`(?:[\s*&]+?)(?:[a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType), Flow: Push("decl")},

		// Free function definitions.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b((?:[a-zA-Z0-9_*&<>:,\s]*?[*&\s]+?))` +
			`(?=(?:(([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`((` + cilkWS01 + `)[<][^;{}()~!%^+=|?/\-]+?[>])?` +
			`(` + cilkWS01 + `)*?(::)(` + cilkWS01 + `)*?)` +
			`([a-zA-Z_][a-zA-Z0-9_]*)\s*\())`,
			Action: ByGroups(Emit(token.KeywordType), Self("root")),
			Flow:   Push("decl")},

		// Member function definitions, constructors and destructors.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`((?:\s*[<][^;{}()~!%^+=|?/\-]+?[>])?)(` + cilkWS01 + `)*?(::)(` + cilkWS01 + `)*?` +
			`(~)?(` + cilkWS01 + `)*?` +
			`(\1)\b` +
			`(` + cilkWS01 + `)*?(\()`,
			Action: ByGroups(Emit(token.KeywordType), Self("root"),
				Self("root"), Emit(token.Operator), Self("root"),
				Emit(token.Operator), Self("root"), Emit(token.NameFunction),
				Self("root"),
				Emit(token.Punctuation)),
			Flow: Push("function-args-start")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:([*\s]|` + cilkWS1 + `)+?[a-zA-Z_][a-zA-Z0-9_]*)(?:` + cilkWS01 + `)(?:[=;]))`,
			Action: Emit(token.KeywordType), Flow: Push("variable")},

		Include("namespace"),

		{Action: Emit(token.Text), Flow: Push("statement")},
	},
	"function-args-start": {
		Include("whitespace"),

		{Pattern: `(struct|union)(\s+|` + cilkWS1 + `)([a-zA-Z_][a-zA-Z0-9_]*)`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.KeywordType)),
			Flow:   PopPush("function-args")},

		{Pattern: `(typename)`, Action: Emit(token.Keyword), Flow: PopPush("typename-function-args")},

		Include("keywords"),

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:(` + cilkWS01 + `)[<][^;{}()~!%^+=|?/\-]+?[>]))`,
			Action: Emit(token.KeywordType), Flow: PopPush("function-args")},

		Include("namespace"),
		{Pattern: `(bool|int|long|float|short|double|char|unsigned|signed|void|` +
			`[a-zA-Z_][a-zA-Z0-9_]*_t)\b`,
			Action: Emit(token.KeywordType), Flow: PopPush("function-args")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: Emit(token.KeywordType), Flow: PopPush("function-args")},

		{Pattern: `[*&]`, Action: Emit(token.Operator)},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},
		{Pattern: `[)]`, Action: Emit(token.Punctuation), Flow: PopPush("function-decl-end")},
	},
	"function-args": {
		{Pattern: `[,]`, Action: Emit(token.Punctuation), Flow: PopPush("function-args-start")},
		{Pattern: `[)]`, Action: Emit(token.Punctuation), Flow: PopPush("function-decl-end")},
		Include("variable"),
	},
	"function-decl-end": {
		Include("whitespace"),
		// Lists of invoked default constructors.
		{Pattern: `[:]`, Action: Emit(token.Punctuation)},

		Include("statements"),

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: PopPush("block")},
		{Pattern: `[;]`, Action: Emit(token.Punctuation), Flow: Pop},
		{Pattern: `[,]`, Action: Emit(token.Punctuation)},
		{Pattern: `([)])(` + cilkWS01 + `)([(])`,
			Action: ByGroups(Emit(token.Punctuation), Self("root"), Emit(token.Punctuation)),
			Flow:   PopPush("function-ptr-args-start")},

		Include("parentheses"),
	},
	"parentheses": {
		{Pattern: `[\[]`, Action: Emit(token.Operator), Flow: Push("statement")},
		{Pattern: `[\]]`, Action: Emit(token.Operator), Flow: Pop},

		{Pattern: `[{]`, Action: Emit(token.Punctuation), Flow: Push("block")},
		{Pattern: `[}]`, Action: Emit(token.Punctuation), Flow: Pop},

		{Pattern: `[(]`, Action: Emit(token.Punctuation), Flow: Push("block-paren")},
		{Pattern: `[)]`, Action: Emit(token.Punctuation), Flow: Pop},
	},
	"statement": {
		Include("whitespace"),
		Include("statements"),
		Include("parentheses"),
		{Pattern: `[;,]`, Action: Emit(token.Punctuation), Flow: Pop},
	},
	"block-for": {
		{Pattern: `;`, Action: Emit(token.Punctuation), Flow: PopPush("block-novardef")},
		Include("block"),
	},
	"block": {
		Include("whitespace"),
		{Pattern: `return`, Action: Emit(token.Keyword), Flow: Push("block-return")},
		{Pattern: `typename`, Action: Emit(token.KeywordReserved), Flow: Push("typename-statement")},
		Include("keywords"),
		Include("namespace"),

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(?:(` + cilkWS01 + `)*?[<][^;{}()~!%^&+=|?<>/\-]+?[>])?(?:([\s&*]|` + cilkWS1 + `)+?)(?:[a-zA-Z_][a-zA-Z0-9_]*))`,
			Action: Emit(token.KeywordType), Flow: Push("variable")},

		{Pattern: `[~!%^&*+=|?:<>/-]`, Action: Emit(token.Operator), Flow: PopPush("block-novardef")},

		{Pattern: `[\]]`, Action: Emit(token.Error)},
		Include("type-cast"),
		{Pattern: `[}]`, Action: Emit(token.Punctuation), Flow: Pop},
		Include("parentheses"),

		{Pattern: `[;,]`, Action: Emit(token.Punctuation)},

		Include("statements"),
	},
	"block-return": {
		{Pattern: `[;]`, Action: Emit(token.Punctuation), Flow: Pop},
		Include("block-novardef"),
	},
	"block-novardef": {
		Include("whitespace"),
		Include("keywords"),

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b(` + cilkWS01 + `)*?([<])`,
			Action: ByGroups(Emit(token.Name), Self("root"), Emit(token.Operator))},

		{Pattern: `[;]`, Action: Emit(token.Punctuation), Flow: PopPush("block")},
		Include("type-cast"),
		Include("parentheses"),

		Include("statements"),

		{Action: Emit(token.Text), Flow: PopPush("block")},
	},
	"block-paren": {
		Include("whitespace"),
		Include("keywords"),
		Include("statements"),

		{Pattern: `[,;]`, Action: Emit(token.Punctuation)},

		{Action: Emit(token.Text), Flow: PopPush("block")},
	},
	"type-cast": {
		{Pattern: `(\()(` + cilkWS01 + `)` +
			`([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(` + cilkWS01 + `)([*]+)(` + cilkWS01 + `)(\))`,
			Action: ByGroups(Emit(token.Operator), Self("root"), Emit(token.KeywordType), Self("root"),
				Emit(token.Operator), Self("root"), Emit(token.Operator))},

		{Pattern: `(\()(` + cilkWS01 + `)` +
			`(unsigned|signed)` +
			`(` + cilkWS01 + `)([a-zA-Z_][a-zA-Z0-9_]*)(` + cilkWS01 + `)(\))`,
			Action: ByGroups(Emit(token.Operator), Self("root"), Emit(token.KeywordType), Self("root"),
				Emit(token.KeywordType), Self("root"), Emit(token.Operator))},

		{Pattern: `(\()(` + cilkWS01 + `)` +
			`([a-zA-Z_][a-zA-Z0-9_<>&*:,\s]*?)(` + cilkWS01 + `)([*]+)(` + cilkWS01 + `)(\))`,
			Action: ByGroups(Emit(token.Operator), Self("root"), Emit(token.Operator), Self("root"),
				Emit(token.Operator))},
	},
	"class": {
		{Pattern: `^(` + cilkWS01 + `)(private|public|protected)(` + cilkWS01 + `)(:)`,
			Action: ByGroups(Self("root"), Emit(token.Keyword), Self("root"), Emit(token.Punctuation))},

		Include("whitespace"),

		// Overloaded operators.
		{Pattern: `(operator)(` + cilkWS01 + `)([*/+-=&()<>!~^|?\[\]]+?)` +
			`(` + cilkWS01 + `)(\()`,
			Action: ByGroups(Emit(token.Keyword), Self("root"), Emit(token.NameFunction), Self("root"),
				Emit(token.Punctuation)),
			Flow: Push("function-args-start")},

		{Pattern: `(using)`, Action: Emit(token.Keyword), Flow: Push("using")},

		{Pattern: `(typename)`, Action: Emit(token.KeywordReserved), Flow: Push("typename-statement")},

		Include("keywords"),
		Include("namespace"),

		// Member functions.
		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(` + cilkWS01 + `)(\()`,
			Action: ByGroups(Emit(token.NameFunction), Self("root"), Emit(token.Punctuation)),
			Flow:   Push("function-args-start")},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b` +
			`(?=(` + cilkWS01 + `)*?[a-zA-Z0-9_<>*&]+?)`,
			Action: Emit(token.KeywordType)},

		{Pattern: `[<]`, Action: Emit(token.Punctuation), Flow: Push("type")},
		{Pattern: `(:)(` + cilkWS01 + `)*?(\d+[LlUu]*)`,
			Action: ByGroups(Emit(token.Operator), Self("root"), Emit(token.NumberInteger))},

		{Pattern: `[~*&]`, Action: Emit(token.Operator)},

		{Pattern: `([a-zA-Z_][a-zA-Z0-9_]*)\b`, Action: Emit(token.NameVariable)},

		{Pattern: `[=]`, Action: Emit(token.Operator), Flow: Push("assignment")},

		{Pattern: `[}]`, Action: Emit(token.Punctuation), Flow: PopPush("class-end")},

		{Pattern: `[\]]`, Action: Emit(token.Error)},

		Include("parentheses"),

		{Pattern: `[;,]`, Action: Emit(token.Punctuation)},

		{Action: Emit(token.Text), Flow: Pop},
	},
	"class-end": {
		Include("whitespace"),
		Include("keywords"),

		{Pattern: `[\]]`, Action: Emit(token.Error)},
		Include("parentheses"),

		{Pattern: `[a-zA-Z_][a-zA-Z0-9_]*\b`, Action: Emit(token.NameVariable)},
		{Pattern: `[;]`, Action: Emit(token.Punctuation), Flow: Pop},

		{Action: Emit(token.Text), Flow: Pop},
	},
	"string": {
		{Pattern: `"`, Action: Emit(token.String), Flow: Pop},
		{Pattern: `\\([\\abfnrtv"']|x[a-fA-F0-9]{2,4}|[0-7]{1,3})`, Action: Emit(token.StringEscape)},
		{Pattern: `[^\\"\n]+`, Action: Emit(token.String)},
		{Pattern: `\\\n`, Action: Emit(token.String)},
		{Pattern: `\\`, Action: Emit(token.String)},
	},
})

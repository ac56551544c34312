package style

import (
	"sort"

	"go.abhg.dev/bookhilite/internal/token"
)

// Book is the highlighting style used for code listings in print.
// It descends from the Emacs color scheme with adjustments for the
// concurrency keywords and the book-authoring categories.
var Book = MustNew("book", []Def{
	{token.Whitespace, "#bbbbbb"},
	{token.Comment, "#B22222"},
	{token.CommentSpecial, ""},

	// Legacy renderings painted hidden code in the page color
	// instead of dropping it.
	{token.CommentInvisible, "#ffffff"},

	{token.CommentPreproc, "#AA22CC"},
	{token.PreprocLibrary, "#CC22CC"},

	{token.Keyword, "#9900F8"},
	{token.KeywordPseudo, ""},
	{token.KeywordType, "#689300"},
	{token.KeywordDeclaration, "#A020F0"},
	{token.KeywordCilk, "#FF0000"},

	{token.Operator, "#404040"},
	{token.OperatorWord, "#AA22FF"},

	{token.Punctuation, "#632618"},

	{token.NameBuiltin, "#AA22FF"},
	{token.NameClass, "#00BB00"},
	{token.NameNamespace, "#33CCCC"},
	{token.NameException, "#D2413A"},
	{token.NameVariable, "#B88600"},
	{token.NameConstant, "#5F9EA0"},
	{token.NameLabel, "#A0A000"},
	{token.NameEntity, "#999999"},
	{token.NameAttribute, "#BB4444"},
	{token.NameTag, "#008000"},
	{token.NameDecorator, "#AA22FF"},
	{token.NameVariableSource, "#632618"},
	{token.NameFunction, "#0D00FF"},
	{token.Name, "#632618"},

	{token.String, "#BB4444"},
	{token.StringDoc, ""},
	{token.StringInterpol, "#BB6688"},
	{token.StringEscape, "#BB6622"},
	{token.StringRegex, "#BB6688"},
	{token.StringSymbol, "#B8860B"},
	{token.StringOther, "#008000"},
	{token.Number, "#632618"},

	{token.GenericHeading, "#000080"},
	{token.GenericSubheading, "#800080"},
	{token.GenericDeleted, "#A00000"},
	{token.GenericInserted, "#00A000"},
	{token.GenericError, "#FF0000"},
	{token.GenericEmph, ""},
	{token.GenericStrong, ""},
	{token.GenericPrompt, "#000080"},
	{token.GenericOutput, "#000000"},
	{token.GenericTraceback, "#04D"},

	{token.Error, "border:#FF0000"},

	{token.Text, "#000000"},
})

// Plain styles nothing: every category renders as unstyled text.
var Plain = MustNew("plain", nil)

var registry = map[string]*Style{
	Book.Name():  Book,
	Plain.Name(): Plain,
}

// Get returns the style registered under name, or nil.
func Get(name string) *Style {
	return registry[name]
}

// Names lists the registered style names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

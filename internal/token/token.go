// Package token defines the semantic categories assigned to lexemes
// and the token values exchanged between lexers and formatters.
//
// Categories form a tree: a category that has no style of its own
// inherits the style of its nearest styled ancestor.
// The tree is open-ended; grammars may declare categories of their own
// (for example [CommentInvisible]) next to the conventional ones.
package token

// A Category is one node in the category tree.
//
// Categories are interned: build them once with [New] at package
// initialization and compare them by pointer afterwards.
type Category struct {
	parent *Category
	name   string
	short  string
}

// New declares a new category under the given parent.
//
// short is the abbreviation used to name the category in generated
// style definitions. If it is empty, one is derived from the parent's
// abbreviation and the category name; categories whose ancestors are
// all unabbreviated stay unabbreviated.
func New(parent *Category, name, short string) *Category {
	if short == "" && parent != nil && parent.short != "" {
		short = parent.short + name
	}
	return &Category{parent: parent, name: name, short: short}
}

// Parent returns the category this one falls back to,
// or nil for [Root].
func (c *Category) Parent() *Category { return c.parent }

// Short returns the abbreviated name of this category
// used in generated style definitions.
func (c *Category) Short() string { return c.short }

// In reports whether c is other or a descendant of other.
func (c *Category) In(other *Category) bool {
	for ; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// String returns the dotted path of this category, e.g. "Keyword.Type".
// The root category is "Token" and is omitted from descendant paths.
func (c *Category) String() string {
	if c.parent == nil {
		return "Token"
	}
	if c.parent.parent == nil {
		return c.name
	}
	return c.parent.String() + "." + c.name
}

// A Token pairs a semantic category with the text it was matched from.
type Token struct {
	Type  *Category
	Value string
}

func (t Token) String() string { return t.Type.String() + ": " + t.Value }

// Root is the apex of the category tree.
// It always resolves to "no style".
var Root = New(nil, "Token", "")

// Plain text and catch-alls.
var (
	Text       = New(Root, "Text", "")
	Whitespace = New(Text, "Whitespace", "w")
	Error      = New(Root, "Error", "err")
	Other      = New(Root, "Other", "x")
)

// Comments, including the book-authoring overlay categories.
//
// CommentInvisible and its descendants never produce visible output.
// CommentInvisibleBegin and CommentInvisibleEnd additionally toggle
// region suppression in the formatters.
// CommentMarkup carries text that the typesetting target emits verbatim.
var (
	Comment          = New(Root, "Comment", "c")
	CommentSingle    = New(Comment, "Single", "c1")
	CommentMultiline = New(Comment, "Multiline", "cm")
	CommentPreproc   = New(Comment, "Preproc", "cp")
	CommentSpecial   = New(Comment, "Special", "cs")

	CommentInvisible      = New(Comment, "Invisible", "")
	CommentInvisibleBegin = New(CommentInvisible, "Begin", "")
	CommentInvisibleEnd   = New(CommentInvisible, "End", "")

	CommentEmph      = New(Comment, "Emph", "")
	CommentEmphBegin = New(CommentEmph, "Begin", "")
	CommentEmphEnd   = New(CommentEmph, "End", "")

	CommentMarkup = New(Comment, "Markup", "")
)

// Keywords. KeywordCilk covers the concurrency extensions;
// KeywordCustom is assigned to identifiers registered at scan time
// via "Keywords:" metadata comments.
var (
	Keyword            = New(Root, "Keyword", "k")
	KeywordConstant    = New(Keyword, "Constant", "kc")
	KeywordDeclaration = New(Keyword, "Declaration", "kd")
	KeywordPseudo      = New(Keyword, "Pseudo", "kp")
	KeywordReserved    = New(Keyword, "Reserved", "kr")
	KeywordType        = New(Keyword, "Type", "kt")
	KeywordPredicated  = New(Keyword, "Predicated", "")

	KeywordCilk           = New(Keyword, "Cilk", "")
	KeywordCilkPredicated = New(KeywordCilk, "Predicated", "")

	KeywordCustom = New(Keyword, "Custom", "")
)

// Names.
var (
	Name          = New(Root, "Name", "n")
	NameAttribute = New(Name, "Attribute", "na")
	NameBuiltin   = New(Name, "Builtin", "nb")
	NameClass     = New(Name, "Class", "nc")
	NameConstant  = New(Name, "Constant", "no")
	NameDecorator = New(Name, "Decorator", "nd")
	NameEntity    = New(Name, "Entity", "ni")
	NameException = New(Name, "Exception", "ne")
	NameFunction  = New(Name, "Function", "nf")
	NameLabel     = New(Name, "Label", "nl")
	NameNamespace = New(Name, "Namespace", "nn")
	NameTag       = New(Name, "Tag", "nt")
	NameVariable  = New(Name, "Variable", "nv")

	// Register operands in assembly listings.
	NameVariableSource      = New(NameVariable, "Source", "")
	NameVariableDestination = New(NameVariable, "Destination", "")
)

// Literals.
var (
	Literal = New(Root, "Literal", "l")

	String         = New(Literal, "String", "s")
	StringChar     = New(String, "Char", "sc")
	StringDoc      = New(String, "Doc", "sd")
	StringEscape   = New(String, "Escape", "se")
	StringInterpol = New(String, "Interpol", "si")
	StringOther    = New(String, "Other", "sx")
	StringRegex    = New(String, "Regex", "sr")
	StringSymbol   = New(String, "Symbol", "ss")

	Number        = New(Literal, "Number", "m")
	NumberFloat   = New(Number, "Float", "mf")
	NumberHex     = New(Number, "Hex", "mh")
	NumberInteger = New(Number, "Integer", "mi")
	NumberOct     = New(Number, "Oct", "mo")
)

// Operators and punctuation.
var (
	Operator     = New(Root, "Operator", "o")
	OperatorWord = New(Operator, "Word", "ow")
	Punctuation  = New(Root, "Punctuation", "p")
)

// Preprocessor payloads, e.g. the library name of an #include.
var (
	Preproc        = New(Root, "Preproc", "")
	PreprocLibrary = New(Preproc, "Library", "")
)

// Generic document categories carried over from delegated grammars.
var (
	Generic           = New(Root, "Generic", "g")
	GenericDeleted    = New(Generic, "Deleted", "gd")
	GenericEmph       = New(Generic, "Emph", "ge")
	GenericError      = New(Generic, "Error", "gr")
	GenericHeading    = New(Generic, "Heading", "gh")
	GenericInserted   = New(Generic, "Inserted", "gi")
	GenericOutput     = New(Generic, "Output", "go")
	GenericPrompt     = New(Generic, "Prompt", "gp")
	GenericStrong     = New(Generic, "Strong", "gs")
	GenericSubheading = New(Generic, "Subheading", "gu")
	GenericTraceback  = New(Generic, "Traceback", "gt")
)

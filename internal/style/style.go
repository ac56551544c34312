// Package style maps token categories to colors and font attributes.
//
// A style lists entries for a subset of the category tree; categories
// without an entry of their own inherit from the nearest styled
// ancestor. An explicitly empty entry is still an entry: it renders
// unstyled and stops inheritance.
package style

import (
	"fmt"
	"strings"

	"braces.dev/errtrace"
	"go.abhg.dev/bookhilite/internal/must"
	"go.abhg.dev/bookhilite/internal/token"
)

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color in "#RRGGBB" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor parses a "#RRGGBB" or "#RGB" color.
func ParseColor(s string) (RGB, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return RGB{}, errtrace.Wrap(fmt.Errorf("color %q: must start with '#'", s))
	}
	if len(hex) == 3 {
		hex = string([]byte{
			hex[0], hex[0], hex[1], hex[1], hex[2], hex[2],
		})
	}
	if len(hex) != 6 {
		return RGB{}, errtrace.Wrap(fmt.Errorf("color %q: need 3 or 6 hex digits", s))
	}
	var c RGB
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return RGB{}, errtrace.Wrap(fmt.Errorf("color %q: %w", s, err))
	}
	return c, nil
}

// An Entry is the resolved appearance of one category.
// The zero value renders as plain text.
type Entry struct {
	Color      *RGB
	Background *RGB
	Border     *RGB
	Bold       bool
	Italic     bool
	Underline  bool
}

// IsZero reports whether the entry changes nothing about the text.
func (e Entry) IsZero() bool { return e == Entry{} }

// parseEntry parses a space-separated style definition:
// "bold", "italic", "underline", a foreground "#RRGGBB",
// "bg:#RRGGBB" and "border:#RRGGBB".
func parseEntry(def string) (Entry, error) {
	var e Entry
	for _, word := range strings.Fields(def) {
		switch {
		case word == "bold":
			e.Bold = true
		case word == "italic":
			e.Italic = true
		case word == "underline":
			e.Underline = true
		case strings.HasPrefix(word, "bg:"):
			c, err := ParseColor(word[len("bg:"):])
			if err != nil {
				return Entry{}, errtrace.Wrap(err)
			}
			e.Background = &c
		case strings.HasPrefix(word, "border:"):
			c, err := ParseColor(word[len("border:"):])
			if err != nil {
				return Entry{}, errtrace.Wrap(err)
			}
			e.Border = &c
		case strings.HasPrefix(word, "#"):
			c, err := ParseColor(word)
			if err != nil {
				return Entry{}, errtrace.Wrap(err)
			}
			e.Color = &c
		default:
			return Entry{}, errtrace.Wrap(fmt.Errorf("unknown style word %q", word))
		}
	}
	return e, nil
}

// A Def declares the style of one category in pygments-like syntax,
// for example "bold #9900F8" or "border:#FF0000".
type Def struct {
	Cat   *token.Category
	Style string
}

// A CatEntry is one parsed style definition.
type CatEntry struct {
	Cat   *token.Category
	Entry Entry
}

// A Style resolves token categories to entries.
// It is immutable once built.
type Style struct {
	name    string
	entries []CatEntry
	tree    styleTree
}

// New builds a style from defs. Declaration order is preserved:
// formatters that register colors as they set up emit them in the
// order the style lists them.
func New(name string, defs []Def) (*Style, error) {
	s := Style{name: name}
	for _, d := range defs {
		e, err := parseEntry(d.Style)
		if err != nil {
			return nil, errtrace.Wrap(fmt.Errorf("style %q, category %v: %w", name, d.Cat, err))
		}
		s.entries = append(s.entries, CatEntry{Cat: d.Cat, Entry: e})
		s.tree.set(d.Cat.String(), e)
	}
	return &s, nil
}

// MustNew is like [New] but panics on an invalid definition.
func MustNew(name string, defs []Def) *Style {
	s, err := New(name, defs)
	must.NotErrorf(err, "style %q must parse", name)
	return s
}

// Name returns the name the style is registered under.
func (s *Style) Name() string { return s.name }

// Entries returns the parsed definitions in declaration order.
func (s *Style) Entries() []CatEntry { return s.entries }

// Get resolves cat to the entry of its nearest styled ancestor.
// It reports false for categories with no styled ancestor at all.
func (s *Style) Get(cat *token.Category) (Entry, bool) {
	return s.tree.lookup(cat.String())
}

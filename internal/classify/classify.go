// Package classify tracks identifiers discovered to be custom types or
// custom keywords while a file is being tokenized.
//
// Names are registered by grammar rules that match type-introducing
// declarations or "Types:"/"Keywords:" metadata comments, and are
// consulted again at every later bare-identifier match in the same file.
// A Classifier belongs to exactly one tokenization; concurrent
// conversions must each use their own.
package classify

import "strings"

// Kind is the classification of an identifier.
type Kind int

const (
	// Plain identifiers keep whatever category the grammar assigns.
	Plain Kind = iota
	// Type identifiers were previously registered as custom types.
	Type
	// Keyword identifiers were previously registered as custom keywords.
	Keyword
)

// Classifier holds the names discovered so far.
// The zero value is ready to use. Sets only ever grow.
type Classifier struct {
	types    map[string]struct{}
	keywords map[string]struct{}
}

// RegisterType records name as a custom type.
// Names are trimmed; empty and already-known names are ignored.
func (c *Classifier) RegisterType(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if c.types == nil {
		c.types = make(map[string]struct{})
	}
	c.types[name] = struct{}{}
}

// RegisterKeyword records name as a custom keyword.
// Names are trimmed; empty and already-known names are ignored.
func (c *Classifier) RegisterKeyword(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if c.keywords == nil {
		c.keywords = make(map[string]struct{})
	}
	c.keywords[name] = struct{}{}
}

// RegisterTypeList registers every space-separated name in payload.
func (c *Classifier) RegisterTypeList(payload string) {
	for _, name := range strings.Fields(payload) {
		c.RegisterType(name)
	}
}

// RegisterKeywordList registers every space-separated name in payload.
func (c *Classifier) RegisterKeywordList(payload string) {
	for _, name := range strings.Fields(payload) {
		c.RegisterKeyword(name)
	}
}

// Classify reports whether name was registered as a type or a keyword.
// Types take precedence over keywords.
func (c *Classifier) Classify(name string) Kind {
	name = strings.TrimSpace(name)
	if _, ok := c.types[name]; ok {
		return Type
	}
	if _, ok := c.keywords[name]; ok {
		return Keyword
	}
	return Plain
}

// NumTypes returns the number of distinct registered types.
func (c *Classifier) NumTypes() int { return len(c.types) }

// NumKeywords returns the number of distinct registered keywords.
func (c *Classifier) NumKeywords() int { return len(c.keywords) }

// Package lexer tokenizes source text into semantic categories.
//
// The heart of the package is a grammar-driven state machine:
// a grammar is a set of named lexical states, each an ordered list of
// rules, with an explicit stack of active states. Rules are tried in
// declared order and the first one matching at the current position
// wins; there is no longest-match tie breaking. Entering a nested
// construct pushes a state, leaving it pops.
//
// Grammars that only need standard tokenization are delegated to
// Chroma instead; see delegate.go.
package lexer

import (
	"fmt"
	"log"
	"strings"

	"github.com/dlclark/regexp2"
	"go.abhg.dev/bookhilite/internal/classify"
	"go.abhg.dev/bookhilite/internal/must"
	"go.abhg.dev/bookhilite/internal/token"
)

// A Rule matches a pattern at the current position and emits tokens,
// optionally changing the state stack.
//
// Patterns use regexp2 syntax: the grammars rely on lookarounds and
// lazy repetition that the standard regexp package cannot express.
// An empty pattern matches zero characters and is useful only for its
// transition.
type Rule struct {
	Pattern string
	Action  Action
	Flow    Flow

	include string
}

// Include splices the rules of the named state at this position.
// Splicing happens once, at compile time.
func Include(state string) Rule {
	return Rule{include: state}
}

// Rules maps state names to their ordered rule lists.
type Rules map[string][]Rule

// Flow describes how a matched rule changes the state stack.
// The zero value leaves the stack alone.
type Flow struct {
	pop  bool
	push []string
	dup  bool
}

// Pop removes the top state, returning to the enclosing construct.
// Popping the last remaining state is clamped: the machine stays in
// its outermost state rather than underflowing.
var Pop = Flow{pop: true}

// Push enters the given states in order; the last one becomes active.
// With no arguments the current state is pushed again.
func Push(states ...string) Flow {
	if len(states) == 0 {
		return Flow{dup: true}
	}
	return Flow{push: states}
}

// PopPush pops the current state and then pushes the given states.
// With a single state this replaces the top of the stack.
func PopPush(states ...string) Flow {
	return Flow{pop: true, push: states}
}

func (f Flow) isZero() bool { return !f.pop && !f.dup && len(f.push) == 0 }

func (f Flow) apply(s *State) {
	switch {
	case f.dup:
		s.stack = append(s.stack, s.stack[len(s.stack)-1])
	default:
		if f.pop && len(s.stack) > 1 {
			s.stack = s.stack[:len(s.stack)-1]
		}
		s.stack = append(s.stack, f.push...)
	}
}

// Captures holds the capture groups of a matched rule.
// Groups[0] is the full match; unmatched groups are empty strings.
type Captures struct {
	Groups []string
}

// State is the mutable context of one tokenization run.
// It owns the state stack and the identifier classifier;
// every run gets a fresh one.
type State struct {
	// Classifier accumulates custom type and keyword names
	// discovered during this run.
	Classifier *classify.Classifier

	stack   []string
	machine *Machine
}

// An Action turns a rule match into zero or more tokens.
// Actions may also mutate the run's classifier; such actions are the
// only rules with side effects and are kept separate from the pure
// category emitters.
type Action interface {
	act(m *Captures, s *State) []token.Token
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(m *Captures, s *State) []token.Token

func (f ActionFunc) act(m *Captures, s *State) []token.Token { return f(m, s) }

type catAction struct{ cat *token.Category }

// Emit emits the entire match as a single token of the given category.
func Emit(cat *token.Category) Action { return catAction{cat} }

func (a catAction) act(m *Captures, _ *State) []token.Token {
	if m.Groups[0] == "" {
		return nil
	}
	return []token.Token{{Type: a.cat, Value: m.Groups[0]}}
}

type byGroups struct{ actions []Action }

// ByGroups assigns one action per capture group, in group order.
// Nested groups count. A nil action discards its group's text.
func ByGroups(actions ...Action) Action { return byGroups{actions} }

func (a byGroups) act(m *Captures, s *State) []token.Token {
	var toks []token.Token
	for i, sub := range a.actions {
		if sub == nil || i+1 >= len(m.Groups) || m.Groups[i+1] == "" {
			continue
		}
		toks = append(toks, sub.act(&Captures{Groups: []string{m.Groups[i+1]}}, s)...)
	}
	return toks
}

type selfAction struct{ state string }

// Self re-tokenizes the matched text with this machine,
// starting from the given state and sharing the run's classifier.
func Self(state string) Action { return selfAction{state} }

func (a selfAction) act(m *Captures, s *State) []token.Token {
	if m.Groups[0] == "" {
		return nil
	}
	return s.machine.run(m.Groups[0], a.state, s.Classifier, nil)
}

// Machine is a compiled grammar. It is immutable and safe to share;
// all per-run state lives in a [State].
type Machine struct {
	start  string
	states map[string][]compiledRule
}

type compiledRule struct {
	re     *regexp2.Regexp // nil for an empty pattern
	action Action
	flow   Flow
}

// Compile resolves includes and compiles every pattern of the grammar.
func Compile(start string, rules Rules) (*Machine, error) {
	flat, err := flatten(rules)
	if err != nil {
		return nil, err
	}
	if _, ok := flat[start]; !ok {
		return nil, fmt.Errorf("start state %q is not defined", start)
	}

	m := Machine{start: start, states: make(map[string][]compiledRule, len(flat))}
	for name, rs := range flat {
		crs := make([]compiledRule, len(rs))
		for i, r := range rs {
			cr := compiledRule{action: r.Action, flow: r.Flow}
			if r.Pattern != "" {
				re, err := regexp2.Compile(r.Pattern, regexp2.Multiline)
				if err != nil {
					return nil, fmt.Errorf("state %q, rule %d: %w", name, i, err)
				}
				cr.re = re
			}
			crs[i] = cr
		}
		m.states[name] = crs
	}

	for name, rs := range flat {
		for i, r := range rs {
			for _, st := range r.Flow.push {
				if _, ok := flat[st]; !ok {
					return nil, fmt.Errorf("state %q, rule %d: transition to undefined state %q", name, i, st)
				}
			}
		}
	}

	return &m, nil
}

// MustCompile is like [Compile] but panics if the grammar is invalid.
func MustCompile(start string, rules Rules) *Machine {
	m, err := Compile(start, rules)
	must.NotErrorf(err, "grammar for %q must compile", start)
	return m
}

func flatten(rules Rules) (Rules, error) {
	flat := make(Rules, len(rules))
	resolving := make(map[string]bool)

	var resolve func(name string) ([]Rule, error)
	resolve = func(name string) ([]Rule, error) {
		if rs, ok := flat[name]; ok {
			return rs, nil
		}
		if resolving[name] {
			return nil, fmt.Errorf("include cycle through state %q", name)
		}
		src, ok := rules[name]
		if !ok {
			return nil, fmt.Errorf("include of undefined state %q", name)
		}
		resolving[name] = true
		defer delete(resolving, name)

		var out []Rule
		for _, r := range src {
			if r.include == "" {
				out = append(out, r)
				continue
			}
			inc, err := resolve(r.include)
			if err != nil {
				return nil, err
			}
			out = append(out, inc...)
		}
		flat[name] = out
		return out, nil
	}

	for name := range rules {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return flat, nil
}

// If a grammar keeps transitioning without consuming input,
// assume it is stuck and fall back to error recovery.
const maxZeroWidth = 500

// Tokenise runs the machine over text with a fresh state,
// returning the full token sequence.
//
// Tokenization cannot fail: positions where no rule matches yield a
// single [token.Error] token and the scan resumes one rune later.
func (m *Machine) Tokenise(text string, debug *log.Logger) []token.Token {
	// Grammars assume every line is newline-terminated.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	var cl classify.Classifier
	return m.run(text, m.start, &cl, debug)
}

func (m *Machine) run(text, start string, cl *classify.Classifier, debug *log.Logger) []token.Token {
	s := State{
		Classifier: cl,
		stack:      []string{start},
		machine:    m,
	}

	runes := []rune(text)
	var toks []token.Token
	pos := 0
	zeroWidth := 0

	for pos < len(runes) {
		state := s.stack[len(s.stack)-1]
		rules, ok := m.states[state]
		if !ok {
			// Unreachable for compiled grammars; clamp to start.
			s.stack = []string{m.start}
			continue
		}

		matched := false
		for _, r := range rules {
			var mt *Captures
			length := 0

			if r.re == nil {
				if r.flow.isZero() {
					continue
				}
				mt = &Captures{Groups: []string{""}}
			} else {
				got, err := r.re.FindRunesMatchStartingAt(runes, pos)
				if err != nil || got == nil || got.Index != pos {
					continue
				}
				length = got.Length
				if length == 0 && r.flow.isZero() {
					// A zero-width match that changes nothing
					// would stall the scan.
					continue
				}
				groups := make([]string, got.GroupCount())
				for i, g := range got.Groups() {
					groups[i] = g.String()
				}
				mt = &Captures{Groups: groups}
			}

			if r.action != nil {
				for _, tok := range r.action.act(mt, &s) {
					if tok.Value != "" {
						toks = append(toks, tok)
					}
				}
			}
			r.flow.apply(&s)
			pos += length

			if debug != nil {
				debug.Printf("lex: %s %q -> %s", state, mt.Groups[0], s.stack[len(s.stack)-1])
			}

			if length == 0 {
				zeroWidth++
			} else {
				zeroWidth = 0
			}
			matched = true
			break
		}

		if !matched || zeroWidth > maxZeroWidth {
			toks = append(toks, token.Token{Type: token.Error, Value: string(runes[pos])})
			pos++
			zeroWidth = 0
			if debug != nil {
				debug.Printf("lex: %s error at %d", state, pos-1)
			}
		}
	}

	return toks
}

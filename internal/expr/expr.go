// Package expr compiles small arithmetic formulas over named stat variables
// and evaluates them through an embedded Lua state.
//
// A formula references stats as bare identifiers ("strength") or as
// qualified tokens ("strength:base", "health:max"). Tokens are rewritten to
// generated identifiers before the source is handed to Lua, so the colon
// form never reaches the interpreter. A handful of math helpers (min, max,
// abs, floor, ceil, sqrt, pow, clamp) are predefined.
package expr

import (
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"
)

// Var is a single stat variable referenced by a formula.
type Var struct {
	Name string // full token as written, e.g. "strength:base"
	Stat string // stat part, e.g. "strength"
	Kind string // selector part, "" when the token has no colon
}

// Program is a compiled formula. It owns a private Lua state and is not
// safe for concurrent use.
type Program struct {
	source     string // original formula text
	chunk      string // rewritten "return ..." chunk
	vars       []Var
	idents     map[string]string // token -> generated identifier
	state      *lua.State
	rewriteErr error
}

// keywords and predefined helpers are never treated as stat variables.
var reserved = map[string]bool{
	"and": true, "or": true, "not": true, "true": true, "false": true,
	"nil": true, "min": true, "max": true, "abs": true, "floor": true,
	"ceil": true, "sqrt": true, "pow": true, "clamp": true, "math": true,
}

const preamble = `
min=math.min max=math.max abs=math.abs floor=math.floor ceil=math.ceil sqrt=math.sqrt
pow=function(a,b) return a^b end
clamp=function(x,lo,hi) return math.min(math.max(x,lo),hi) end
`

// Compile parses source, rewrites stat tokens and validates the resulting
// Lua chunk. A non-nil error means the formula is malformed; callers are
// expected to degrade to an inert value per the engine's error contract.
func Compile(source string) (*Program, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("empty expression")
	}

	p := &Program{
		source: source,
		idents: make(map[string]string),
	}
	p.chunk = "return " + p.rewrite(source)
	if p.rewriteErr != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", source, p.rewriteErr)
	}

	p.state = lua.NewState()
	lua.OpenLibraries(p.state)
	if err := lua.DoString(p.state, preamble); err != nil {
		return nil, fmt.Errorf("expression preamble: %w", err)
	}
	if err := lua.LoadString(p.state, p.chunk); err != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", source, err)
	}
	p.state.Pop(1) // discard the validated chunk

	return p, nil
}

// Source returns the original formula text.
func (p *Program) Source() string { return p.source }

// Vars lists the distinct stat variables in order of first appearance.
func (p *Program) Vars() []Var { return p.vars }

// Eval runs the formula with the given variable values, keyed by Var.Name.
// Missing variables evaluate as 0.
func (p *Program) Eval(values map[string]float64) (float64, error) {
	for _, v := range p.vars {
		p.state.PushNumber(values[v.Name])
		p.state.SetGlobal(p.idents[v.Name])
	}
	if err := lua.DoString(p.state, p.chunk); err != nil {
		return 0, fmt.Errorf("evaluating expression %q: %w", p.source, err)
	}
	n, ok := p.state.ToNumber(-1)
	p.state.Pop(1)
	if !ok {
		return 0, fmt.Errorf("expression %q did not produce a number", p.source)
	}
	return n, nil
}

// rewrite replaces every stat token with a generated identifier and records
// the variable list. Function names and keywords pass through untouched.
func (p *Program) rewrite(src string) string {
	var out strings.Builder
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isIdentStart(r) {
			out.WriteRune(r)
			// Skip the fraction/exponent of numeric literals so "1e3"
			// is not half-parsed as an identifier.
			if r >= '0' && r <= '9' {
				for i+1 < len(runes) && isNumberPart(runes[i+1]) {
					i++
					out.WriteRune(runes[i])
				}
			}
			continue
		}

		start := i
		for i+1 < len(runes) && isIdentPart(runes[i+1]) {
			i++
		}
		token := string(runes[start : i+1])

		// Qualified form "<stat>:<kind>".
		if i+2 < len(runes) && runes[i+1] == ':' && isIdentStart(runes[i+2]) {
			j := i + 2
			for j+1 < len(runes) && isIdentPart(runes[j+1]) {
				j++
			}
			token = string(runes[start : j+1])
			i = j
		}

		parts := strings.SplitN(token, ":", 2)
		if reserved[parts[0]] {
			if len(parts) == 2 && p.rewriteErr == nil {
				p.rewriteErr = fmt.Errorf("reserved word %q used as a stat name in %q", parts[0], token)
			}
			out.WriteString(token)
			continue
		}
		out.WriteString(p.ident(token))
	}
	return out.String()
}

// ident returns the generated identifier for token, registering the
// variable on first sight.
func (p *Program) ident(token string) string {
	if id, ok := p.idents[token]; ok {
		return id
	}
	id := fmt.Sprintf("__v%d", len(p.vars))
	p.idents[token] = id

	v := Var{Name: token, Stat: token}
	if idx := strings.IndexByte(token, ':'); idx >= 0 {
		v.Stat = token[:idx]
		v.Kind = token[idx+1:]
	}
	p.vars = append(p.vars, v)
	return id
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isNumberPart(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == 'e' || r == 'E' ||
		r == 'x' || r == 'X' || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

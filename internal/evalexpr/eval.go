package evalexpr

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"tracevm/internal/env"
	"tracevm/internal/value"
)

// numericLooking is the fallback test for whether a malformed expression
// should degrade to zero (it "looks" arithmetic) or be handed back verbatim
// as a string value.
var numericLooking = regexp.MustCompile(`^[A-Za-z0-9 _+\-*/().]*$`)

var typeSizes = map[string]int64{
	"char": 1, "bool": 1,
	"short": 2,
	"int":   4, "float": 4,
	"long": 8, "double": 8,
}

// Eval evaluates expr against the live variable map. It never fails:
// unrecognized input degrades to integer 0, or to the raw trimmed text when
// the source doesn't even look numeric.
func Eval(expr string, vars env.Vars) value.Value {
	text := strings.TrimSpace(expr)
	if text == "" {
		return value.Zero()
	}
	toks := scan(text)
	p := &parser{toks: toks, vars: vars}
	v := p.parseExpr()
	if p.cur().typ != tEOF {
		// Trailing garbage the grammar didn't consume: total evaluator,
		// so fall back rather than error.
		if numericLooking.MatchString(text) {
			return value.Zero()
		}
		return value.Str(text)
	}
	return v
}

type parser struct {
	toks []token
	pos  int
	vars env.Vars
}

func (p *parser) cur() token { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *parser) check(t tokType) bool { return p.cur().typ == t }
func (p *parser) match(t tokType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// parseExpr == grammar's `expr`.
func (p *parser) parseExpr() value.Value {
	return p.ternary()
}

func (p *parser) ternary() value.Value {
	cond := p.addsub()
	if p.match(tQuestion) {
		thenVal := p.parseExpr()
		p.match(tColon)
		elseVal := p.parseExpr()
		if cond.Truthy() {
			return thenVal
		}
		return elseVal
	}
	return cond
}

func (p *parser) addsub() value.Value {
	left := p.muldiv()
	for p.check(tPlus) || p.check(tMinus) {
		op := p.advance().typ
		right := p.muldiv()
		left = applyAdd(op, left, right)
	}
	return left
}

func (p *parser) muldiv() value.Value {
	left := p.unary()
	for p.check(tStar) || p.check(tSlash) || p.check(tPercent) {
		op := p.advance().typ
		right := p.unary()
		left = applyMul(op, left, right)
	}
	return left
}

func (p *parser) unary() value.Value {
	if p.match(tMinus) {
		v := p.unary()
		if v.Kind == value.Float {
			return value.Float64(-v.F)
		}
		return value.Int64(-v.AsInt())
	}
	if p.match(tPlus) {
		return p.unary()
	}
	return p.primary()
}

func applyAdd(op tokType, a, b value.Value) value.Value {
	if a.Kind == value.String || b.Kind == value.String {
		return value.Str(a.String() + b.String())
	}
	if a.Kind == value.Float || b.Kind == value.Float {
		if op == tPlus {
			return value.Float64(a.AsFloat() + b.AsFloat())
		}
		return value.Float64(a.AsFloat() - b.AsFloat())
	}
	if op == tPlus {
		return value.Int64(a.AsInt() + b.AsInt())
	}
	return value.Int64(a.AsInt() - b.AsInt())
}

func applyMul(op tokType, a, b value.Value) value.Value {
	if a.Kind == value.Float || b.Kind == value.Float {
		af, bf := a.AsFloat(), b.AsFloat()
		switch op {
		case tStar:
			return value.Float64(af * bf)
		case tSlash:
			if bf == 0 {
				return value.Float64(0)
			}
			return value.Float64(af / bf)
		default: // modulo on floats: truncate like the source's int-biased model
			ai, bi := a.AsInt(), b.AsInt()
			if bi == 0 {
				return value.Int64(0)
			}
			return value.Int64(ai % bi)
		}
	}
	ai, bi := a.AsInt(), b.AsInt()
	switch op {
	case tStar:
		return value.Int64(ai * bi)
	case tSlash:
		if bi == 0 {
			return value.Int64(0) // no trap on division by zero
		}
		return value.Int64(ai / bi) // Go's / already truncates toward zero
	default:
		if bi == 0 {
			return value.Int64(0)
		}
		return value.Int64(ai % bi)
	}
}

func (p *parser) primary() value.Value {
	t := p.cur()
	switch t.typ {
	case tNum:
		p.advance()
		i, err := strconv.ParseInt(t.lex, 0, 64) // base 0 handles 0x hex
		if err != nil {
			return value.Zero()
		}
		return value.Int64(i)
	case tFloatNum:
		p.advance()
		lex := strings.TrimSuffix(strings.TrimSuffix(t.lex, "f"), "F")
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return value.Zero()
		}
		return value.Float64(f)
	case tChar:
		p.advance()
		return charLiteral(t.lex)
	case tString:
		p.advance()
		return value.Str(t.lex)
	case tLParen:
		p.advance()
		v := p.parseExpr()
		p.match(tRParen)
		return v
	case tAmp:
		p.advance()
		if p.check(tIdent) {
			name := p.advance().lex
			return value.AddrOf(name)
		}
		return value.Zero()
	case tStar:
		p.advance()
		if p.check(tIdent) {
			name := p.advance().lex
			if v, ok := p.vars.Deref(name); ok {
				return v
			}
		}
		return value.Zero()
	case tIdent:
		return p.identForm()
	default:
		p.advance()
		return value.Zero()
	}
}

func (p *parser) identForm() value.Value {
	name := p.advance().lex
	switch name {
	case "true":
		return value.Bool_(true)
	case "false":
		return value.Bool_(false)
	case "nullptr", "NULL":
		return value.Null_()
	case "sizeof":
		return p.sizeofForm()
	}
	if p.check(tLParen) {
		return p.callForm(name)
	}
	if p.match(tLBracket) {
		idx := p.parseExpr()
		p.match(tRBracket)
		if v, ok := p.vars.ArrayElem(name, int(idx.AsInt())); ok {
			return v
		}
		return value.Zero()
	}
	if v, ok := p.vars.Lookup(name); ok {
		return v
	}
	return value.Zero()
}

// sizeofForm parses 'sizeof' '(' (ident|type) ')' optionally followed by the
// "/ sizeof(arr[N?])" shortcut that resolves straight to the element count.
func (p *parser) sizeofForm() value.Value {
	p.match(tLParen)
	var inner string
	if p.check(tIdent) {
		inner = p.advance().lex
	}
	p.match(tRParen)

	if p.check(tSlash) {
		save := p.pos
		p.advance() // '/'
		if p.check(tIdent) && p.cur().lex == "sizeof" {
			p.advance()
			if p.match(tLParen) {
				var denomIdent string
				if p.check(tIdent) {
					denomIdent = p.advance().lex
				}
				if p.match(tLBracket) {
					if p.check(tNum) {
						p.advance()
					}
					p.match(tRBracket)
					p.match(tRParen)
					_ = denomIdent
					if n, ok := p.vars.ArrayLen(inner); ok {
						return value.Int64(int64(n))
					}
					return value.Zero()
				}
			}
		}
		// Didn't match the shortcut shape after all; rewind.
		p.pos = save
	}

	if n, ok := p.vars.ArrayLen(inner); ok {
		return value.Int64(int64(n) * 4)
	}
	if sz, ok := typeSizes[inner]; ok {
		return value.Int64(sz)
	}
	return value.Int64(4)
}

func (p *parser) callForm(name string) value.Value {
	p.match(tLParen)
	var args []value.Value
	if !p.check(tRParen) {
		args = append(args, p.parseExpr())
		for p.match(tComma) {
			args = append(args, p.parseExpr())
		}
	}
	p.match(tRParen)
	return callBuiltin(name, args)
}

func callBuiltin(name string, args []value.Value) value.Value {
	switch name {
	case "abs":
		if len(args) < 1 {
			return value.Zero()
		}
		a := args[0]
		if a.Kind == value.Float {
			return value.Float64(math.Abs(a.F))
		}
		n := a.AsInt()
		if n < 0 {
			n = -n
		}
		return value.Int64(n)
	case "min":
		if len(args) < 2 {
			return firstOrZero(args)
		}
		if args[0].AsFloat() <= args[1].AsFloat() {
			return args[0]
		}
		return args[1]
	case "max":
		if len(args) < 2 {
			return firstOrZero(args)
		}
		if args[0].AsFloat() >= args[1].AsFloat() {
			return args[0]
		}
		return args[1]
	case "sqrt":
		if len(args) < 1 {
			return value.Zero()
		}
		return value.Float64(math.Sqrt(args[0].AsFloat()))
	case "pow":
		if len(args) < 2 {
			return firstOrZero(args)
		}
		return value.Float64(math.Pow(args[0].AsFloat(), args[1].AsFloat()))
	default:
		// Unknown function names: return the first argument if present,
		// else zero.
		return firstOrZero(args)
	}
}

func firstOrZero(args []value.Value) value.Value {
	if len(args) > 0 {
		return args[0]
	}
	return value.Zero()
}

func charLiteral(lex string) value.Value {
	if lex == "" {
		return value.Char_(0)
	}
	if lex[0] == '\\' && len(lex) > 1 {
		switch lex[1] {
		case 'n':
			return value.Char_('\n')
		case 't':
			return value.Char_('\t')
		case '0':
			return value.Char_(0)
		default:
			return value.Char_(lex[1])
		}
	}
	return value.Char_(lex[0])
}

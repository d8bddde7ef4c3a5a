package guard

import (
	"fmt"
	"strings"
)

// whitelistedFuncs is the small set of function calls a guard/reset
// expression may use (§9: "function calls restricted to a small
// whitelist").
var whitelistedFuncs = map[string]struct{}{
	"abs": {}, "min": {}, "max": {}, "size": {},
}

type parser struct {
	toks []token
	pos  int
}

// Parse compiles a single expression source string into a Node. Quantifiers
// ("forall o in others: ...", "exists o in others: ...") are recognized at
// any position a boolean expression is expected.
func Parse(src string) (*Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("guard: unexpected trailing input after %q", src)
	}
	return node, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "||" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "&&" {
		p.advance()
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

var compareOps = map[string]struct{}{"==": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {}}

func (p *parser) parseCompare() (*Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokOp {
		if _, ok := compareOps[p.cur().text]; ok {
			op := p.advance().text
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: NodeBinary, Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (*Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NodeBinary, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*Node, error) {
	if p.cur().kind == tokOp && p.cur().text == "!" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: "!", Left: operand}, nil
	}
	if p.cur().kind == tokOp && p.cur().text == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: "-", Left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	t := p.cur()
	switch t.kind {
	case tokNum:
		p.advance()
		return &Node{Kind: NodeLitNum, Num: t.num}, nil
	case tokStr:
		p.advance()
		return &Node{Kind: NodeLitStr, Str: t.text}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("guard: expected ')'")
		}
		p.advance()
		return inner, nil
	case tokIdent:
		return p.parseIdentLed()
	case tokLBracket:
		return p.parseList()
	default:
		return nil, fmt.Errorf("guard: unexpected token while parsing expression")
	}
}

// parseList parses a bracketed list literal "[a, b, c]", used by reset
// expressions that assign a nondeterministic set of candidate values.
func (p *parser) parseList() (*Node, error) {
	p.advance() // consume '['
	var elems []*Node
	if p.cur().kind != tokRBracket {
		for {
			elem, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			if p.cur().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != tokRBracket {
		return nil, fmt.Errorf("guard: expected ']' to close list literal")
	}
	p.advance()
	return &Node{Kind: NodeList, Args: elems}, nil
}

func (p *parser) parseIdentLed() (*Node, error) {
	t := p.advance()
	switch t.text {
	case "true":
		return &Node{Kind: NodeLitBool, Bool: true}, nil
	case "false":
		return &Node{Kind: NodeLitBool, Bool: false}, nil
	case "forall", "exists":
		return p.parseQuantifier(t.text)
	}
	if p.cur().kind == tokLParen {
		return p.parseCall(t.text)
	}
	if strings.Contains(t.text, ".") {
		return &Node{Kind: NodeVar, Path: t.text}, nil
	}
	// A bare, non-dotted identifier that is not a keyword or call is an
	// enum literal, e.g. `SwitchLeft` in `ego.mode == SwitchLeft`.
	return &Node{Kind: NodeLitStr, Str: t.text}, nil
}

func (p *parser) parseQuantifier(op string) (*Node, error) {
	if p.cur().kind != tokIdent {
		return nil, fmt.Errorf("guard: expected bound variable after %q", op)
	}
	boundVar := p.advance().text
	if p.cur().kind != tokIdent || p.cur().text != "in" {
		return nil, fmt.Errorf("guard: expected 'in' after quantifier binder")
	}
	p.advance()
	if p.cur().kind != tokIdent || p.cur().text != "others" {
		return nil, fmt.Errorf("guard: quantifiers may only range over 'others'")
	}
	p.advance()
	if p.cur().kind != tokColon {
		return nil, fmt.Errorf("guard: expected ':' after quantifier range")
	}
	p.advance()
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: NodeQuant, QuantOp: op, BoundVar: boundVar, Body: body}, nil
}

func (p *parser) parseCall(name string) (*Node, error) {
	if _, ok := whitelistedFuncs[name]; !ok {
		return nil, fmt.Errorf("guard: function %q is not in the evaluation whitelist", name)
	}
	p.advance() // consume '('
	var args []*Node
	if p.cur().kind != tokRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != tokRParen {
		return nil, fmt.Errorf("guard: expected ')' to close call to %q", name)
	}
	p.advance()
	return &Node{Kind: NodeCall, Func: name, Args: args}, nil
}

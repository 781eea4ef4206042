// Package parser parses the flat filter wire grammar back into a
// where.Filter tree.
//
// Parsing is the right inverse of rendering on strings: for any string s
// the renderer can produce, Parse(s).Where() == s. It is not an inverse on
// trees — the grammar is flat, so e.g. `~not(a,eq,1)~and(b,eq,2)` parses
// as And(Not(a), b) even when it was rendered from Not(And(a, b)). The two
// trees render identically, which is all the grammar can express.
package parser

import (
	"fmt"

	"github.com/sgoldberg/nocogo/fault"
	"github.com/sgoldberg/nocogo/where"
	"github.com/sgoldberg/nocogo/where/lexer"
	"github.com/sgoldberg/nocogo/where/token"
)

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l: l,
	}

	p.nextToken()
	p.nextToken()

	return p
}

// Parse tokenizes and parses a complete wire string. Empty input is a
// validation error; a caller with no filter simply omits the parameter.
func Parse(input string) (where.Filter, error) {
	return New(lexer.New(input)).ParseFilter()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseFilter parses one unit chain: ["~not"] unit (("~and"|"~or") ["~not"] unit)*.
// Mixed joiners nest left-associatively, which preserves the rendered
// left-to-right token order.
func (p *Parser) ParseFilter() (where.Filter, error) {
	root, err := p.parseUnit()
	if err != nil {
		return nil, err
	}

	for p.curToken.Type != token.EOF {
		joiner := p.curToken.Type
		if joiner != token.AND && joiner != token.OR {
			return nil, p.unexpected("`~and` or `~or`")
		}
		p.nextToken()

		next, err := p.parseUnit()
		if err != nil {
			return nil, err
		}

		if joiner == token.AND {
			root, err = where.And(root, next)
		} else {
			root, err = where.Or(root, next)
		}
		if err != nil {
			return nil, err
		}
	}

	return root, nil
}

// parseUnit parses any number of leading `~not` prefixes followed by one
// parenthesized condition.
func (p *Parser) parseUnit() (where.Filter, error) {
	nots := 0
	for p.curToken.Type == token.NOT {
		nots++
		p.nextToken()
	}

	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	var f where.Filter = cond
	for range nots {
		f, err = where.Not(f)
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// parseCondition parses `(field,op[,value...])`. Every comma-separated
// part lexes as a raw value; position decides whether it is the field, the
// operator, or a payload value. Condition construction re-validates the
// operator and payload shape.
func (p *Parser) parseCondition() (where.Condition, error) {
	if p.curToken.Type != token.LPAREN {
		return where.Condition{}, p.unexpected("`(`")
	}
	p.nextToken()

	var parts []string
	for {
		switch p.curToken.Type {
		case token.VALUE:
			parts = append(parts, p.curToken.Literal)
			p.nextToken()
		case token.COMMA, token.RPAREN:
			// Adjacent delimiters mean an empty value. The renderer can
			// produce those: string payloads may be empty.
			parts = append(parts, "")
		default:
			return where.Condition{}, p.unexpected("a value")
		}

		if p.curToken.Type == token.RPAREN {
			p.nextToken()
			break
		}
		if p.curToken.Type != token.COMMA {
			return where.Condition{}, p.unexpected("`,` or `)`")
		}
		p.nextToken()
	}

	if len(parts) < 2 {
		return where.Condition{}, fault.New(fault.ValidationCode, "condition needs a field and an operator")
	}

	values := make([]any, len(parts)-2)
	for i, v := range parts[2:] {
		values[i] = v
	}

	return where.NewCondition(parts[0], where.Operator(parts[1]), values...)
}

func (p *Parser) unexpected(want string) error {
	got := p.curToken.Literal
	if p.curToken.Type == token.EOF {
		got = "end of input"
	}
	return fault.New(fault.ValidationCode, fmt.Sprintf("expected %s, got `%s`", want, got))
}

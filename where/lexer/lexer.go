// Package lexer tokenizes the flat filter wire grammar, e.g.
// `(Status,eq,open)~and(Age,gte,18)`.
package lexer

import "github.com/sgoldberg/nocogo/where/token"

type Lexer struct {
	input   []rune
	pos     int  // position of the current character in the input string
	readPos int  // position of the next character to be read
	char    rune // current character being processed

	// inCondition tracks whether the cursor sits inside a parenthesized
	// condition. Inside one, everything up to the next `,` or `)` is a raw
	// value; outside, only `(` and tilde keywords are legal.
	inCondition bool
}

var tildeKeywords = map[string]token.TokenType{
	"and": token.AND,
	"or":  token.OR,
	"not": token.NOT,
}

func New(input string) *Lexer {
	l := &Lexer{input: []rune(input)}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	switch l.char {
	case 0:
		tok = token.Token{Type: token.EOF, Literal: ""}
	case '(':
		l.inCondition = true
		tok = token.Token{Type: token.LPAREN, Literal: "("}
	case ')':
		l.inCondition = false
		tok = token.Token{Type: token.RPAREN, Literal: ")"}
	case ',':
		if !l.inCondition {
			tok = token.Token{Type: token.ILLEGAL, Literal: ","}
			break
		}
		tok = token.Token{Type: token.COMMA, Literal: ","}
	case '~':
		if l.inCondition {
			// A tilde inside a condition is part of a raw value.
			return l.readValue()
		}
		return l.readTildeKeyword()
	default:
		if l.inCondition {
			return l.readValue()
		}
		tok = token.Token{Type: token.ILLEGAL, Literal: string(l.char)}
	}

	l.readChar()
	return tok
}

// readValue consumes characters until a structural delimiter. The grammar
// has no escaping, so a value simply cannot contain `,` or `)`.
func (l *Lexer) readValue() token.Token {
	pos := l.pos

	for l.char != 0 && l.char != ',' && l.char != ')' {
		l.readChar()
	}

	return token.Token{Type: token.VALUE, Literal: string(l.input[pos:l.pos])}
}

// readTildeKeyword consumes `~` plus the following letters and maps them
// to AND, OR, or NOT.
func (l *Lexer) readTildeKeyword() token.Token {
	l.readChar() // skip the tilde

	pos := l.pos
	for isLetter(l.char) {
		l.readChar()
	}

	word := string(l.input[pos:l.pos])
	if t, ok := tildeKeywords[word]; ok {
		return token.Token{Type: t, Literal: "~" + word}
	}

	return token.Token{Type: token.ILLEGAL, Literal: "~" + word}
}

func isLetter(char rune) bool {
	return ('a' <= char && char <= 'z') || ('A' <= char && char <= 'Z')
}

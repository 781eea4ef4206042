package token

const (
	ILLEGAL TokenType = iota
	EOF

	// VALUE is any raw run of characters inside a condition: field names,
	// operator tokens, and payload values all lex as VALUE and the parser
	// decides which is which by position.
	VALUE

	// Delimiters
	COMMA
	LPAREN
	RPAREN

	// Tilde keywords
	AND
	OR
	NOT
)

type TokenType int

type Token struct {
	Type    TokenType
	Literal string
}

// Package lexer tokenizes NilNovi source text into a stream of lexical
// units, Component A of spec.md §2/§4.A.
package lexer

import (
	"fmt"

	"github.com/nilnovi/nnp/internal/token"
)

// Lexer converts NNP source text into tokens. It keeps track of the
// current character under examination, the next readable position, and
// the line/column of the current character so every emitted Token can
// be tagged with its source position.
type Lexer struct {
	input        string
	position     int  // current position in input (points to the current char)
	readPosition int  // position of the char that will be read next
	ch           byte // current char under examination
	line         int
	column       int
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}

	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// skipComment discards from "--" to end of line, if the current
// position starts a comment.
func (l *Lexer) skipComment() bool {
	if l.ch == '-' && l.peekChar() == '-' {
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		return true
	}
	return false
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readInteger() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// NextToken scans and returns the next lexical unit, skipping
// whitespace and comments. A character that starts no valid token is
// consumed and returned as an ILLEGAL token carrying that single
// character as its literal, leaving the caller (internal/compiler) to
// raise a LexicalError with the token's line/column.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()
		if !l.skipComment() {
			break
		}
	}

	line, column := l.line, l.column

	var tok token.Token
	switch l.ch {
	case ':':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.ASSIGN, Literal: ":="}
		} else {
			tok = newToken(token.COLON, l.ch)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<="}
		} else {
			tok = newToken(token.LT, l.ch)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">="}
		} else {
			tok = newToken(token.GT, l.ch)
		}
	case '/':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "/="}
		} else {
			tok = newToken(token.SLASH, l.ch)
		}
	case '+':
		tok = newToken(token.PLUS, l.ch)
	case '-':
		tok = newToken(token.MINUS, l.ch)
	case '*':
		tok = newToken(token.ASTERISK, l.ch)
	case '=':
		tok = newToken(token.EQ, l.ch)
	case '(':
		tok = newToken(token.LPAREN, l.ch)
	case ')':
		tok = newToken(token.RPAREN, l.ch)
	case ',':
		tok = newToken(token.COMMA, l.ch)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch)
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			tok.Literal = lit
			tok.Type = token.LookupIdent(lit)
			tok.Line, tok.Column = line, column
			return tok
		} else if isDigit(l.ch) {
			lit := l.readInteger()
			tok.Literal = lit
			tok.Type = token.INT
			tok.Line, tok.Column = line, column
			return tok
		}
		tok = newToken(token.ILLEGAL, l.ch)
	}

	tok.Line, tok.Column = line, column
	l.readChar()
	return tok
}

func newToken(tokenType token.Type, ch byte) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch)}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// TokenString formats a single token with its type, literal and
// line:column position, for debug logging.
func TokenString(tok token.Token) string {
	return fmt.Sprintf("%s(%q) @%d:%d", tok.Type, tok.Literal, tok.Line, tok.Column)
}

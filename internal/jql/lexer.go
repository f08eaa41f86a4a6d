package jql

import "strings"

// TokenKind identifies the type of lexical token.
type TokenKind int

const (
	TokEOF     TokenKind = iota
	TokWord              // bareword or quoted string (quotes stripped)
	TokEq                // =
	TokNeq               // !=
	TokTilde             // ~
	TokLParen            // (
	TokRParen            // )
	TokComma             // ,
	TokUnknown           // any other single character
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokWord:
		return "WORD"
	case TokEq:
		return "="
	case TokNeq:
		return "!="
	case TokTilde:
		return "~"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokComma:
		return ","
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lit    string // for quoted strings: content without quotes
	Quoted bool   // true when the word was quoted in the input
	Pos    int    // byte offset in input
}

// Lexer tokenizes a JQL string. The lexer never fails: malformed input (an
// unterminated quote, a stray character) degrades to a tolerant token rather
// than an error, preserving the parser's never-throws contract.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Lit: "(", Pos: startPos}
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Lit: ")", Pos: startPos}
	case ',':
		l.pos++
		return Token{Kind: TokComma, Lit: ",", Pos: startPos}
	case '=':
		l.pos++
		return Token{Kind: TokEq, Lit: "=", Pos: startPos}
	case '~':
		l.pos++
		return Token{Kind: TokTilde, Lit: "~", Pos: startPos}
	case '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Kind: TokNeq, Lit: "!=", Pos: startPos}
		}
		l.pos++
		return Token{Kind: TokUnknown, Lit: "!", Pos: startPos}
	case '"', '\'':
		return l.scanQuoted(ch)
	}

	return l.scanBareword()
}

// Tokenize consumes the remaining input and returns all tokens up to and
// excluding EOF.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.Next()
		if tok.Kind == TokEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// scanQuoted scans a quoted string. An unterminated quote consumes the rest
// of the input and still yields a word token.
func (l *Lexer) scanQuoted(quote byte) Token {
	startPos := l.pos
	l.pos++ // skip opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == quote {
			l.pos++ // skip closing quote
			break
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return Token{Kind: TokWord, Lit: sb.String(), Quoted: true, Pos: startPos}
}

func (l *Lexer) scanBareword() Token {
	startPos := l.pos
	for l.pos < len(l.input) && isBarewordChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokWord, Lit: l.input[startPos:l.pos], Pos: startPos}
}

// isBarewordChar returns true if ch can be part of a bareword. Barewords
// exclude whitespace, the operator characters and the grouping punctuation.
func isBarewordChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r':
		return false
	case '(', ')', ',', '=', '~', '!', '"', '\'':
		return false
	default:
		return true
	}
}

package lexer

import "fmt"

// Scanner performs lexical analysis on tundra source. Tokens are produced
// on demand; once the source is exhausted every further call returns EOF.
type Scanner struct {
	source []byte
	start  int
	cursor int
	line   int
}

// NewScanner creates a new scanner for the given source.
func NewScanner(source []byte) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
	}
}

// Reset re-initializes the scanner with new source for reuse.
func (s *Scanner) Reset(source []byte) {
	s.source = source
	s.start = 0
	s.cursor = 0
	s.line = 1
}

// Next returns the next token from the source.
func (s *Scanner) Next() Token {
	s.skipWhitespace()

	s.start = s.cursor

	if s.cursor >= len(s.source) {
		return Token{Kind: KindEOF, Line: s.line}
	}

	ch := s.advance()

	switch {
	case isDigit(ch):
		return s.scanNumber()
	case isAlpha(ch):
		return s.scanIdentifier()
	}

	switch ch {
	case '(':
		return s.make(KindLParen)
	case ')':
		return s.make(KindRParen)
	case '{':
		return s.make(KindLBrace)
	case '}':
		return s.make(KindRBrace)
	case '+':
		return s.make(KindPlus)
	case '-':
		return s.make(KindMinus)
	case '*':
		return s.make(KindStar)
	case '/':
		return s.make(KindSlash)
	case ',':
		return s.make(KindComma)
	case '.':
		return s.make(KindDot)
	case ';':
		return s.make(KindSemicolon)
	case '!':
		if s.match('=') {
			return s.make(KindBangEqual)
		}
		return s.make(KindBang)
	case '=':
		if s.match('=') {
			return s.make(KindEqualEqual)
		}
		return s.make(KindEqual)
	case '<':
		if s.match('=') {
			return s.make(KindLessEqual)
		}
		return s.make(KindLess)
	case '>':
		if s.match('=') {
			return s.make(KindGreaterEqual)
		}
		return s.make(KindGreater)
	case '"':
		return s.scanString()
	}

	return s.errorToken(fmt.Sprintf("Unexpected character '%c'", ch))
}

func (s *Scanner) skipWhitespace() {
	for s.cursor < len(s.source) {
		switch s.source[s.cursor] {
		case ' ', '\t', '\r':
			s.cursor++
		case '\n':
			s.line++
			s.cursor++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for s.cursor < len(s.source) && s.source[s.cursor] != '\n' {
				s.cursor++
			}
		default:
			return
		}
	}
}

func (s *Scanner) scanNumber() Token {
	for isDigit(s.peek()) {
		s.cursor++
	}

	// A fractional part requires a digit after the dot, so "1.foo"
	// scans as Number(1) Dot Identifier(foo).
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.cursor++
		for isDigit(s.peek()) {
			s.cursor++
		}
	}

	return s.makeText(KindNumber, string(s.source[s.start:s.cursor]))
}

func (s *Scanner) scanIdentifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.cursor++
	}

	text := string(s.source[s.start:s.cursor])
	if kind := LookupIdentifier(text); kind != KindIdentifier {
		return s.make(kind)
	}
	return s.makeText(KindIdentifier, text)
}

func (s *Scanner) scanString() Token {
	for s.cursor < len(s.source) && s.source[s.cursor] != '"' {
		if s.source[s.cursor] == '\n' {
			s.line++
		}
		s.cursor++
	}

	if s.cursor >= len(s.source) {
		return s.errorToken("Unterminated string")
	}

	s.cursor++ // closing quote
	return s.makeText(KindString, string(s.source[s.start+1:s.cursor-1]))
}

func (s *Scanner) advance() byte {
	ch := s.source[s.cursor]
	s.cursor++
	return ch
}

func (s *Scanner) match(expected byte) bool {
	if s.cursor >= len(s.source) || s.source[s.cursor] != expected {
		return false
	}
	s.cursor++
	return true
}

func (s *Scanner) peek() byte {
	if s.cursor >= len(s.source) {
		return 0
	}
	return s.source[s.cursor]
}

func (s *Scanner) peekNext() byte {
	if s.cursor+1 >= len(s.source) {
		return 0
	}
	return s.source[s.cursor+1]
}

func (s *Scanner) make(kind Kind) Token {
	return Token{Kind: kind, Line: s.line}
}

func (s *Scanner) makeText(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text, Line: s.line}
}

func (s *Scanner) errorToken(message string) Token {
	return Token{Kind: KindError, Text: message, Line: s.line}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

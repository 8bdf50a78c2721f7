package lexer

// Kind represents the type of token identified by the scanner.
type Kind uint8

const (
	// Single-character punctuation.
	KindLParen Kind = iota
	KindRParen
	KindLBrace
	KindRBrace
	KindPlus
	KindMinus
	KindSlash
	KindStar
	KindComma
	KindDot
	KindSemicolon

	// One- and two-character operators.
	KindBang
	KindBangEqual
	KindLess
	KindLessEqual
	KindGreater
	KindGreaterEqual
	KindEqual
	KindEqualEqual

	// Literals carrying text.
	KindIdentifier
	KindNumber
	KindString

	// Keywords.
	KindAnd
	KindOr
	KindClass
	KindSuper
	KindThis
	KindIf
	KindElse
	KindTrue
	KindFalse
	KindNil
	KindFor
	KindWhile
	KindFun
	KindReturn
	KindVar
	KindPrint

	// Sentinels.
	KindError
	KindEOF
)

// Token represents a lexical unit. Text is empty for tokens whose kind
// alone is meaningful; identifiers, numbers and strings carry their text
// (strings with the surrounding quotes stripped), and error tokens carry
// the diagnostic message.
type Token struct {
	Kind Kind
	Text string
	Line int
}

var keywords = map[string]Kind{
	"and":    KindAnd,
	"class":  KindClass,
	"else":   KindElse,
	"false":  KindFalse,
	"for":    KindFor,
	"fun":    KindFun,
	"if":     KindIf,
	"nil":    KindNil,
	"or":     KindOr,
	"print":  KindPrint,
	"return": KindReturn,
	"super":  KindSuper,
	"this":   KindThis,
	"true":   KindTrue,
	"var":    KindVar,
	"while":  KindWhile,
}

// LookupIdentifier returns the keyword kind for reserved words and
// KindIdentifier for everything else.
func LookupIdentifier(text string) Kind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	return KindIdentifier
}

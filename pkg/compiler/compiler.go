// Package compiler translates tundra source into bytecode in a single
// pass: an operator-precedence (Pratt) parser that emits instructions
// directly into a chunk, with no intermediate syntax tree.
package compiler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/AbeetoChan/tundraix/pkg/compiler/lexer"
	"github.com/AbeetoChan/tundraix/pkg/core/value"
	"github.com/AbeetoChan/tundraix/pkg/vm"
)

type precedence uint8

const (
	precNone precedence = iota
	precAssignment // =
	precOr         // or
	precAnd        // and
	precEquality   // == !=
	precComparison // < > <= >=
	precTerm       // + -
	precFactor     // * /
	precUnary      // ! -
	precCall       // . ()
	precPrimary
)

// parseFn handles one token in expression position. canAssign is true
// only when parsing at assignment precedence or below; it is what keeps
// `a * b = c` from compiling while `a = c` does.
type parseFn func(c *Compiler, canAssign bool) error

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is populated in init to break the initialization cycle between
// the table and the handlers that consult it.
var rules map[lexer.Kind]parseRule

func init() {
	rules = map[lexer.Kind]parseRule{
		lexer.KindLParen:       {prefix: (*Compiler).grouping},
		lexer.KindMinus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: precTerm},
		lexer.KindPlus:         {infix: (*Compiler).binary, prec: precTerm},
		lexer.KindSlash:        {infix: (*Compiler).binary, prec: precFactor},
		lexer.KindStar:         {infix: (*Compiler).binary, prec: precFactor},
		lexer.KindBang:         {prefix: (*Compiler).unary},
		lexer.KindBangEqual:    {infix: (*Compiler).binary, prec: precEquality},
		lexer.KindEqualEqual:   {infix: (*Compiler).binary, prec: precEquality},
		lexer.KindGreater:      {infix: (*Compiler).binary, prec: precComparison},
		lexer.KindGreaterEqual: {infix: (*Compiler).binary, prec: precComparison},
		lexer.KindLess:         {infix: (*Compiler).binary, prec: precComparison},
		lexer.KindLessEqual:    {infix: (*Compiler).binary, prec: precComparison},
		lexer.KindNumber:       {prefix: (*Compiler).number},
		lexer.KindString:       {prefix: (*Compiler).stringLiteral},
		lexer.KindTrue:         {prefix: (*Compiler).literal},
		lexer.KindFalse:        {prefix: (*Compiler).literal},
		lexer.KindNil:          {prefix: (*Compiler).literal},
		lexer.KindIdentifier:   {prefix: (*Compiler).variable},
	}
}

func getRule(kind lexer.Kind) parseRule {
	// Absent kinds parse as {nil, nil, precNone}.
	return rules[kind]
}

// Compiler consumes tokens from the scanner and emits bytecode into the
// chunk under construction. The first malformed construct aborts
// compilation; there is no error recovery.
type Compiler struct {
	scanner  *lexer.Scanner
	current  lexer.Token
	previous lexer.Token
	chunk    *vm.Chunk
}

// Compile translates source into a chunk, or returns the first diagnostic
// encountered, formatted as "[line N] Error: <message>".
func Compile(source string) (*vm.Chunk, error) {
	c := &Compiler{
		scanner: lexer.NewScanner([]byte(source)),
		chunk:   vm.NewChunk(),
	}

	if err := c.advance(); err != nil {
		return nil, err
	}

	for !c.check(lexer.KindEOF) {
		if err := c.declaration(); err != nil {
			return nil, err
		}
	}

	// Return doubles as the end-of-program sentinel the VM halts on.
	c.emit(byte(vm.OpReturn))
	return c.chunk, nil
}

// advance shifts the token window by one. Error tokens surface here, so
// every grammar production only ever sees well-formed tokens.
func (c *Compiler) advance() error {
	c.previous = c.current
	c.current = c.scanner.Next()

	if c.current.Kind == lexer.KindError {
		return c.errorAtCurrent(c.current.Text)
	}
	return nil
}

func (c *Compiler) check(kind lexer.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind lexer.Kind) (bool, error) {
	if !c.check(kind) {
		return false, nil
	}
	return true, c.advance()
}

func (c *Compiler) consume(kind lexer.Kind, message string) error {
	if c.check(kind) {
		return c.advance()
	}
	return c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) error {
	return errorAt(c.current, message)
}

func (c *Compiler) errorAtPrevious(message string) error {
	return errorAt(c.previous, message)
}

func errorAt(tok lexer.Token, message string) error {
	return fmt.Errorf("[line %d] Error: %s", tok.Line, message)
}

// emit writes a byte tagged with the line of the token that produced it.
func (c *Compiler) emit(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emit(b1)
	c.emit(b2)
}

func (c *Compiler) makeConstant(v value.Value) (byte, error) {
	idx := c.chunk.AddConstant(v)
	if idx > math.MaxUint8 {
		return 0, c.errorAtPrevious("Too many constants in one chunk.")
	}
	return byte(idx), nil
}

func (c *Compiler) emitConstant(v value.Value) error {
	idx, err := c.makeConstant(v)
	if err != nil {
		return err
	}
	c.emitBytes(byte(vm.OpConstant), idx)
	return nil
}

// declaration parses one top-level construct: a var declaration or a
// statement.
func (c *Compiler) declaration() error {
	ok, err := c.match(lexer.KindVar)
	if err != nil {
		return err
	}
	if ok {
		return c.varDeclaration()
	}
	return c.statement()
}

func (c *Compiler) varDeclaration() error {
	global, err := c.parseVariable("Expected variable name.")
	if err != nil {
		return err
	}

	hasInit, err := c.match(lexer.KindEqual)
	if err != nil {
		return err
	}
	if hasInit {
		if err := c.expression(); err != nil {
			return err
		}
	} else {
		c.emit(byte(vm.OpNil))
	}

	if err := c.consume(lexer.KindSemicolon, "Expected ';' after variable declaration."); err != nil {
		return err
	}

	c.emitBytes(byte(vm.OpDefineGlobal), global)
	return nil
}

// parseVariable consumes an identifier and interns its name in the
// constant pool, returning the pool index.
func (c *Compiler) parseVariable(message string) (byte, error) {
	if err := c.consume(lexer.KindIdentifier, message); err != nil {
		return 0, err
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(tok lexer.Token) (byte, error) {
	return c.makeConstant(value.String(tok.Text))
}

func (c *Compiler) statement() error {
	if ok, err := c.match(lexer.KindPrint); err != nil {
		return err
	} else if ok {
		return c.printStatement()
	}

	if ok, err := c.match(lexer.KindLBrace); err != nil {
		return err
	} else if ok {
		return c.block()
	}

	return c.expressionStatement()
}

func (c *Compiler) printStatement() error {
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(lexer.KindSemicolon, "Expected ';' after value."); err != nil {
		return err
	}
	c.emit(byte(vm.OpPrint))
	return nil
}

// block parses declarations until the closing brace. Blocks are purely
// syntactic grouping: they introduce no scope, and declarations inside
// them still define globals.
func (c *Compiler) block() error {
	for !c.check(lexer.KindRBrace) && !c.check(lexer.KindEOF) {
		if err := c.declaration(); err != nil {
			return err
		}
	}
	return c.consume(lexer.KindRBrace, "Expected '}' after block.")
}

func (c *Compiler) expressionStatement() error {
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(lexer.KindSemicolon, "Expected ';' after expression."); err != nil {
		return err
	}
	c.emit(byte(vm.OpPop))
	return nil
}

func (c *Compiler) expression() error {
	return c.parsePrecedence(precAssignment)
}

// parsePrecedence is the Pratt core: dispatch the prefix handler for the
// token in expression position, then fold in infix operators for as long
// as their binding strength meets the minimum for this parse level.
func (c *Compiler) parsePrecedence(prec precedence) error {
	if err := c.advance(); err != nil {
		return err
	}

	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		return c.errorAtPrevious("Expected expression.")
	}

	canAssign := prec <= precAssignment
	if err := prefix(c, canAssign); err != nil {
		return err
	}

	for prec <= getRule(c.current.Kind).prec {
		if err := c.advance(); err != nil {
			return err
		}
		if err := getRule(c.previous.Kind).infix(c, canAssign); err != nil {
			return err
		}
	}

	return nil
}

func (c *Compiler) number(_ bool) error {
	f, err := strconv.ParseFloat(c.previous.Text, 64)
	if err != nil {
		return c.errorAtPrevious("Invalid number literal.")
	}
	return c.emitConstant(value.Number(f))
}

func (c *Compiler) stringLiteral(_ bool) error {
	return c.emitConstant(value.String(c.previous.Text))
}

func (c *Compiler) literal(_ bool) error {
	switch c.previous.Kind {
	case lexer.KindFalse:
		c.emit(byte(vm.OpFalse))
	case lexer.KindTrue:
		c.emit(byte(vm.OpTrue))
	case lexer.KindNil:
		c.emit(byte(vm.OpNil))
	}
	return nil
}

func (c *Compiler) grouping(_ bool) error {
	if err := c.expression(); err != nil {
		return err
	}
	return c.consume(lexer.KindRParen, "Expected ')' after expression.")
}

func (c *Compiler) unary(_ bool) error {
	opKind := c.previous.Kind

	if err := c.parsePrecedence(precUnary); err != nil {
		return err
	}

	switch opKind {
	case lexer.KindMinus:
		c.emit(byte(vm.OpNegate))
	case lexer.KindBang:
		c.emit(byte(vm.OpNot))
	}
	return nil
}

// binary compiles the right operand at one level above the operator's own
// precedence, making every binary operator left-associative. The ordered
// relations reuse two opcodes: a <= b compiles to !(a > b) and a >= b to
// !(a < b).
func (c *Compiler) binary(_ bool) error {
	opKind := c.previous.Kind

	if err := c.parsePrecedence(getRule(opKind).prec + 1); err != nil {
		return err
	}

	switch opKind {
	case lexer.KindPlus:
		c.emit(byte(vm.OpAdd))
	case lexer.KindMinus:
		c.emit(byte(vm.OpSubtract))
	case lexer.KindStar:
		c.emit(byte(vm.OpMultiply))
	case lexer.KindSlash:
		c.emit(byte(vm.OpDivide))
	case lexer.KindEqualEqual:
		c.emit(byte(vm.OpEqual))
	case lexer.KindBangEqual:
		c.emitBytes(byte(vm.OpEqual), byte(vm.OpNot))
	case lexer.KindGreater:
		c.emit(byte(vm.OpGreater))
	case lexer.KindGreaterEqual:
		c.emitBytes(byte(vm.OpLess), byte(vm.OpNot))
	case lexer.KindLess:
		c.emit(byte(vm.OpLess))
	case lexer.KindLessEqual:
		c.emitBytes(byte(vm.OpGreater), byte(vm.OpNot))
	}
	return nil
}

// variable compiles a bare identifier: an assignment when followed by '='
// in a position where assignment is allowed, otherwise a read.
func (c *Compiler) variable(canAssign bool) error {
	return c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name lexer.Token, canAssign bool) error {
	arg, err := c.identifierConstant(name)
	if err != nil {
		return err
	}

	if canAssign {
		ok, err := c.match(lexer.KindEqual)
		if err != nil {
			return err
		}
		if ok {
			if err := c.expression(); err != nil {
				return err
			}
			c.emitBytes(byte(vm.OpSetGlobal), arg)
			return nil
		}
	}

	c.emitBytes(byte(vm.OpGetGlobal), arg)
	return nil
}

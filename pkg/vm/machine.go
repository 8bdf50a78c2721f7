// Package vm implements the tundra bytecode format and the stack machine
// that executes it.
package vm

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/AbeetoChan/tundraix/pkg/core/value"
)

var (
	ErrStackOverflow     = errors.New("vm: stack overflow")
	ErrStackUnderflow    = errors.New("vm: stack underflow")
	ErrMalformedBytecode = errors.New("vm: malformed bytecode")
)

// StackDepth is the fixed capacity of the evaluation stack.
const StackDepth = 256

// PrintFunc receives the fully formatted output of a print statement,
// trailing newline included. Returning an error aborts the interpretation.
type PrintFunc func(text string) error

// Machine is a stack machine executing one chunk at a time. Globals
// persist across Interpret calls on the same machine; nothing else does.
// A Machine is not safe for concurrent use.
type Machine struct {
	Stack   [StackDepth]value.Value
	SP      int
	Globals map[string]value.Value

	chunk *Chunk
	ip    int
	line  int // source line of the opcode currently executing
	print PrintFunc
}

// New creates a machine that writes print output through the given sink.
func New(print PrintFunc) *Machine {
	return &Machine{
		Globals: make(map[string]value.Value),
		print:   print,
	}
}

// Push adds a value to the stack. Panics on overflow; Interpret converts
// the panic into an error.
func (m *Machine) Push(v value.Value) {
	if m.SP >= StackDepth {
		panic(ErrStackOverflow)
	}
	m.Stack[m.SP] = v
	m.SP++
}

// Pop removes and returns the top value from the stack. Panics on
// underflow; Interpret converts the panic into an error.
func (m *Machine) Pop() value.Value {
	if m.SP <= 0 {
		panic(ErrStackUnderflow)
	}
	m.SP--
	return m.Stack[m.SP]
}

func (m *Machine) peek(distance int) value.Value {
	return m.Stack[m.SP-1-distance]
}

// Interpret executes the chunk from the beginning, running until its
// Return sentinel or the first error. The first error is terminal for the
// run: no unwinding or recovery happens beyond returning it.
func (m *Machine) Interpret(chunk *Chunk) (err error) {
	// An out-of-bounds stack access is a compiler bug, not user input;
	// surface it as an error instead of crashing the host.
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && (errors.Is(e, ErrStackOverflow) || errors.Is(e, ErrStackUnderflow)) {
				err = e
				return
			}
			// Index panics here mean malformed bytecode, e.g. a
			// truncated or corrupt chunk image.
			if e, ok := r.(runtime.Error); ok {
				err = fmt.Errorf("%w: %v", ErrMalformedBytecode, e)
				return
			}
			panic(r)
		}
	}()

	m.chunk = chunk
	m.ip = 0
	return m.run()
}

func (m *Machine) readByte() byte {
	b := m.chunk.Code[m.ip]
	m.line = m.chunk.Lines[m.ip]
	m.ip++
	return b
}

func (m *Machine) readConstant() value.Value {
	return m.chunk.Constants[m.readByte()]
}

func (m *Machine) readString() string {
	return m.readConstant().AsString()
}

func (m *Machine) errorf(format string, args ...any) error {
	return fmt.Errorf("[line %d] Error: %s", m.line, fmt.Sprintf(format, args...))
}

func isFalsey(v value.Value) bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

func (m *Machine) run() error {
	for {
		op := OpCode(m.readByte())

		switch op {
		case OpReturn:
			return nil

		case OpConstant:
			m.Push(m.readConstant())

		case OpNil:
			m.Push(value.Nil())

		case OpTrue:
			m.Push(value.Bool(true))

		case OpFalse:
			m.Push(value.Bool(false))

		case OpNegate:
			if !m.peek(0).IsNumber() {
				return m.errorf("Operand(s) must be a number.")
			}
			m.Push(value.Number(-m.Pop().AsNumber()))

		case OpNot:
			m.Push(value.Bool(isFalsey(m.Pop())))

		case OpAdd:
			switch {
			case m.peek(0).IsString() && m.peek(1).IsString():
				b := m.Pop().AsString()
				a := m.Pop().AsString()
				m.Push(value.String(a + b))
			case m.peek(0).IsNumber() && m.peek(1).IsNumber():
				b := m.Pop().AsNumber()
				a := m.Pop().AsNumber()
				m.Push(value.Number(a + b))
			default:
				return m.errorf("Invalid operands.")
			}

		case OpSubtract, OpMultiply, OpDivide, OpGreater, OpLess:
			if !m.peek(0).IsNumber() || !m.peek(1).IsNumber() {
				return m.errorf("Operands must be numbers.")
			}
			b := m.Pop().AsNumber()
			a := m.Pop().AsNumber()
			switch op {
			case OpSubtract:
				m.Push(value.Number(a - b))
			case OpMultiply:
				m.Push(value.Number(a * b))
			case OpDivide:
				// Division by zero follows IEEE 754 (Inf/NaN), not an error.
				m.Push(value.Number(a / b))
			case OpGreater:
				m.Push(value.Bool(a > b))
			case OpLess:
				m.Push(value.Bool(a < b))
			}

		case OpEqual:
			b := m.Pop()
			a := m.Pop()
			m.Push(value.Bool(a.Equal(b)))

		case OpPrint:
			if err := m.print(m.Pop().Format() + "\n"); err != nil {
				return err
			}

		case OpPop:
			m.Pop()

		case OpDefineGlobal:
			name := m.readString()
			m.Globals[name] = m.peek(0)
			m.Pop()

		case OpGetGlobal:
			name := m.readString()
			v, ok := m.Globals[name]
			if !ok {
				return m.errorf("Undefined variable %s", name)
			}
			m.Push(v)

		case OpSetGlobal:
			name := m.readString()
			if _, ok := m.Globals[name]; !ok {
				return m.errorf("Undefined variable %s", name)
			}
			// Assignment is an expression: the value stays on the stack.
			m.Globals[name] = m.peek(0)

		default:
			return m.errorf("Unknown opcode %d", op)
		}
	}
}

package vm

// OpCode is a single-byte instruction tag. The numeric order is the wire
// format of compiled chunk images and must not be rearranged.
type OpCode uint8

const (
	OpReturn OpCode = iota
	OpConstant
	OpNil
	OpTrue
	OpFalse
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpEqual
	OpGreater
	OpLess
	OpPrint
	OpPop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
)

var opNames = [...]string{
	OpReturn:       "RETURN",
	OpConstant:     "CONSTANT",
	OpNil:          "NIL",
	OpTrue:         "TRUE",
	OpFalse:        "FALSE",
	OpNegate:       "NEGATE",
	OpAdd:          "ADD",
	OpSubtract:     "SUBTRACT",
	OpMultiply:     "MULTIPLY",
	OpDivide:       "DIVIDE",
	OpNot:          "NOT",
	OpEqual:        "EQUAL",
	OpGreater:      "GREATER",
	OpLess:         "LESS",
	OpPrint:        "PRINT",
	OpPop:          "POP",
	OpDefineGlobal: "DEFINE_GLOBAL",
	OpGetGlobal:    "GET_GLOBAL",
	OpSetGlobal:    "SET_GLOBAL",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "UNKNOWN"
}

// hasOperand reports whether the opcode is followed by a one-byte
// constant-pool index.
func (op OpCode) hasOperand() bool {
	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal:
		return true
	}
	return false
}

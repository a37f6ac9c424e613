// Package ir is the minimal external IR/builder host this pass is
// written against: a flat node arena addressed by stable integer keys,
// modules made of blocks of expressions, and a small set of opcodes
// covering loads, FIFO handshakes, binds/async calls, casts, slices and
// binary arithmetic.
package ir

// Key identifies a node in a System's arena. Keys are assigned in
// creation order and are never reused, so a Key remains a valid,
// comparable handle across arena mutation (including Erase).
type Key int

// NoKey marks an absent Key, where a Key is optional. It is never
// allocated (unlike the zero Key, which is the first key a System hands out).
const NoKey Key = -1

// DataType describes the width and signedness of a value.
type DataType struct {
	Bits   int
	Signed bool
}

// Signed32 is the fallback type used when a value's real type cannot be
// recovered locally (see SPEC_FULL.md §7, §11).
var Signed32 = DataType{Bits: 32, Signed: true}

// IntTy returns a signed integer type of the given width, matching the
// host's DataType::int_ty constructor.
func IntTy(bits int) DataType { return DataType{Bits: bits, Signed: true} }

// Opcode identifies the operation an Expr performs.
type Opcode int

const (
	OpLoad Opcode = iota
	OpFIFOPop
	OpFIFOPush
	OpStore
	OpBind
	OpAsyncCall
	OpBarrier // BlockIntrinsic{Barrier}

	OpBinaryAdd
	OpBinarySub
	OpBinaryMul
	OpBinaryMod
	OpBinaryAnd
	OpBinaryOr
	OpBinaryXor
	OpBinaryShl
	OpBinaryShr

	OpCastBitCast
	OpCastSignExt
	OpCastZeroExt
	OpCastTruncate

	OpSlice

	// Handshake primitives synthesized by the rewriter; not produced by
	// Discovery, only by Rewrite.
	OpFIFOValid
	OpWaitUntil
)

// IsSupportedBinary reports whether the rewriter knows how to clone this
// binary opcode into a new stage body. Everything else is logged and
// skipped (SPEC_FULL.md §7, scenario S6).
func (op Opcode) IsSupportedBinary() bool {
	switch op {
	case OpBinaryAdd, OpBinarySub, OpBinaryMul:
		return true
	default:
		return false
	}
}

func (op Opcode) String() string {
	switch op {
	case OpLoad:
		return "Load"
	case OpFIFOPop:
		return "FIFOPop"
	case OpFIFOPush:
		return "FIFOPush"
	case OpStore:
		return "Store"
	case OpBind:
		return "Bind"
	case OpAsyncCall:
		return "AsyncCall"
	case OpBarrier:
		return "Barrier"
	case OpBinaryAdd:
		return "Add"
	case OpBinarySub:
		return "Sub"
	case OpBinaryMul:
		return "Mul"
	case OpBinaryMod:
		return "Mod"
	case OpBinaryAnd:
		return "BitwiseAnd"
	case OpBinaryOr:
		return "BitwiseOr"
	case OpBinaryXor:
		return "BitwiseXor"
	case OpBinaryShl:
		return "Shl"
	case OpBinaryShr:
		return "Shr"
	case OpCastBitCast:
		return "BitCast"
	case OpCastSignExt:
		return "SignExt"
	case OpCastZeroExt:
		return "ZeroExt"
	case OpCastTruncate:
		return "Truncate"
	case OpSlice:
		return "Slice"
	case OpFIFOValid:
		return "FIFOValid"
	case OpWaitUntil:
		return "WaitUntil"
	default:
		return "Unknown"
	}
}

// Node is implemented by every arena element.
type Node interface {
	key() Key
	setKey(Key)
}

type nodeBase struct {
	Key Key
}

func (n *nodeBase) key() Key       { return n.Key }
func (n *nodeBase) setKey(k Key)   { n.Key = k }

// Module is a named collection of ports and a single body Block.
type Module struct {
	nodeBase
	Name  string
	Ports []Key // PortDecl keys, in declaration order
	Body  Key   // Block key
}

// PortDecl is a named, typed port on a Module.
type PortDecl struct {
	nodeBase
	Name    string
	DT      DataType
	IsInput bool
	FIFO    Key // backing FIFO as given in PortInfo.FIFO (the zero Key if unset)
}

// Block holds an ordered list of expression keys, in the order they were
// appended (which, because keys only increase, is also ascending key
// order).
type Block struct {
	nodeBase
	Exprs []Key
}

// Expr is a single operation with an ordered operand list.
type Expr struct {
	nodeBase
	Opcode   Opcode
	Operands []Key
	DT       DataType
	Name     string
	Module   Key // owning module
	Block    Key // owning block
}

// IntImm is an integer immediate.
type IntImm struct {
	nodeBase
	Value int64
	DT    DataType
}

// FIFO is a bounded queue connecting a producer stage to a consumer
// stage's port.
type FIFO struct {
	nodeBase
	Name  string
	DT    DataType
	Depth int
}

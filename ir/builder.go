package ir

// The constructors below wrap Emit for each opcode this pass produces or
// consumes, matching the shape of the host's expression-builder methods
// (NewLoad, NewFIFOPop, NewBitCast, ...) referenced throughout
// original_source/src/xform/barrier_analysis.rs.

func (s *System) NewLoad(port Key, dt DataType) Key {
	return s.Emit(OpLoad, []Key{port}, dt, "")
}

func (s *System) NewFIFOPop(port Key, dt DataType) Key {
	return s.Emit(OpFIFOPop, []Key{port}, dt, "")
}

// NewFIFOPush pushes value into the FIFO backing port. Operand 0 is the
// port/FIFO reference, operand 1 is the value -- mirroring the original's
// `get_operand_value(1)` use of FIFOPush as the data source.
func (s *System) NewFIFOPush(port, value Key) Key {
	return s.Emit(OpFIFOPush, []Key{port, value}, DataType{}, "")
}

func (s *System) NewStore(addr, value Key) Key {
	return s.Emit(OpStore, []Key{addr, value}, DataType{}, "")
}

// NewBind records a call-site argument binding to a callee module.
func (s *System) NewBind(callee, arg Key) Key {
	return s.Emit(OpBind, []Key{callee, arg}, DataType{}, "")
}

func (s *System) NewAsyncCall(callee Key) Key {
	return s.Emit(OpAsyncCall, []Key{callee}, DataType{}, "")
}

func (s *System) NewBarrier(value Key) Key {
	return s.Emit(OpBarrier, []Key{value}, DataType{}, "")
}

// NewSlice carries operand 0 (the sliced value) plus start/end bounds.
func (s *System) NewSlice(value, start, end Key, dt DataType) Key {
	return s.Emit(OpSlice, []Key{value, start, end}, dt, "")
}

func (s *System) NewAdd(lhs, rhs Key, dt DataType) Key {
	return s.Emit(OpBinaryAdd, []Key{lhs, rhs}, dt, "")
}

func (s *System) NewSub(lhs, rhs Key, dt DataType) Key {
	return s.Emit(OpBinarySub, []Key{lhs, rhs}, dt, "")
}

func (s *System) NewMul(lhs, rhs Key, dt DataType) Key {
	return s.Emit(OpBinaryMul, []Key{lhs, rhs}, dt, "")
}

func (s *System) NewBitwiseAnd(lhs, rhs Key, dt DataType) Key {
	return s.Emit(OpBinaryAnd, []Key{lhs, rhs}, dt, "")
}

func (s *System) NewBitCast(value Key, dt DataType) Key {
	return s.Emit(OpCastBitCast, []Key{value}, dt, "")
}

// NewFIFOValid reads the valid bit of a FIFO-backed port.
func (s *System) NewFIFOValid(port Key) Key {
	return s.Emit(OpFIFOValid, []Key{port}, DataType{Bits: 1}, "")
}

// NewWaitUntil blocks stage execution until cond holds.
func (s *System) NewWaitUntil(cond Key) Key {
	return s.Emit(OpWaitUntil, []Key{cond}, DataType{}, "")
}

// InitBind returns a handle representing an un-argumented call to callee
// (the Init-bind of the GLOSSARY): BindArg attaches each argument to it
// before NewAsyncCall fires it. It emits nothing by itself.
func (s *System) InitBind(callee Key) Key {
	return callee
}

// BindArg attaches one argument binding to the in-flight call represented
// by init (a handle returned by InitBind).
func (s *System) BindArg(init, arg Key) Key {
	return s.NewBind(init, arg)
}

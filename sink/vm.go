package sink

import "errors"

// ErrVMNotImplemented is returned by VM; a bytecode-executing sink is
// out of scope, only its place in the Sink interface is reserved.
var ErrVMNotImplemented = errors.New("sink: vm sink is not implemented")

// VM is a placeholder Sink for a future bytecode-executing
// application layer. It satisfies the Sink interface so node wiring
// can be swapped without touching the consensus or gossip layers, but
// Apply always fails.
type VM struct{}

// NewVM returns an unimplemented VM sink.
func NewVM() *VM {
	return &VM{}
}

// Apply always returns ErrVMNotImplemented.
func (*VM) Apply([]byte) error {
	return ErrVMNotImplemented
}

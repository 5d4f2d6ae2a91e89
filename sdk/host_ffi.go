package sdk

import (
	"runtime"

	"github.com/ebitengine/purego"

	"github.com/evplug/everything-go/abi"
)

// ffiResolver calls the host's get_proc_address function pointer.
type ffiResolver struct {
	getProcAddress uintptr
}

func (r ffiResolver) Resolve(name string) (Proc, bool) {
	n := abi.BytePtr(name)
	fn, _, _ := purego.SyscallN(r.getProcAddress, ptr(n))
	runtime.KeepAlive(n)
	if fn == 0 {
		return nil, false
	}
	return func(args ...uintptr) uintptr {
		r1, _, _ := purego.SyscallN(fn, args...)
		return r1
	}, true
}

// NewFFIHost creates a host from the get_proc_address pointer the host
// passes as INIT data.
func NewFFIHost(getProcAddress uintptr) *Host {
	return NewHost(ffiResolver{getProcAddress: getProcAddress})
}

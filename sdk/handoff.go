package sdk

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Config values handed to START without a host (standalone mode or tests)
// travel as opaque handles, the same way the host passes its own pointers.
var (
	handoffs    sync.Map // uintptr -> any
	nextHandoff atomic.Uintptr
)

// NewConfigHandle registers cfg for a single START message and returns the
// handle to pass as its data. The value is consumed by that START.
func NewConfigHandle[C any](cfg C) uintptr {
	h := nextHandoff.Add(1)
	handoffs.Store(h, &cfg)
	return h
}

// takeConfigHandle consumes a handle created by NewConfigHandle. An unknown
// handle or a config of another type is a programming error.
func takeConfigHandle[C any](h uintptr) *C {
	v, ok := handoffs.LoadAndDelete(h)
	if !ok {
		panic(fmt.Sprintf("plugin: unknown config handle %#x", h))
	}
	cfg, ok := v.(*C)
	if !ok {
		panic(fmt.Sprintf("plugin: config handle %#x holds %T", h, v))
	}
	return cfg
}

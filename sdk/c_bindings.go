//go:build cgo

package sdk

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/rs/zerolog/log"
)

func init() {
	// Identity strings are owned by the host for the lifetime of the DLL.
	allocCString = func(s string) uintptr {
		return uintptr(unsafe.Pointer(C.CString(s)))
	}
}

// everything_plugin_proc is the single entry point Everything calls. msg is
// an EVERYTHING_PLUGIN_PM_* code and data depends on it.
//
//export everything_plugin_proc
func everything_plugin_proc(msg C.uint32_t, data unsafe.Pointer) C.uintptr_t {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Uint32("msg", uint32(msg)).Msg("Plugin message panicked")
			panic(r)
		}
	}()
	return C.uintptr_t(Instance().Handle(uint32(msg), uintptr(data)))
}

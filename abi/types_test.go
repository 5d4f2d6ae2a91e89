package abi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestCString(t *testing.T) {
	b := BytePtr("Everything")
	assert.Equal(t, "Everything", CString(uintptr(unsafe.Pointer(&b[0]))))
	assert.Equal(t, "", CString(0))
}

// Message data the plugin allocated itself is read back through Pointer;
// this must hold under -race, where checkptr is enabled.
func TestPointerToGoMemory(t *testing.T) {
	d := &LoadOptionsPage{UserData: 2, PageHWND: 0x500}
	got := (*LoadOptionsPage)(Pointer(uintptr(unsafe.Pointer(d))))
	assert.Same(t, d, got)
	assert.Equal(t, uintptr(2), got.UserData)
}

func TestWords(t *testing.T) {
	lParam := uintptr(480<<16 | 640)
	assert.Equal(t, int32(640), LoWord(lParam))
	assert.Equal(t, int32(480), HiWord(lParam))
}

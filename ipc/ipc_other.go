//go:build !windows

package ipc

// Outside Windows there is no host window to find.
func threadEnumerator() Enumerator {
	return EnumeratorFunc(func(func(uintptr, string) bool) {})
}

func platformSender() Sender {
	return SenderFunc(func(uintptr, uint32, uintptr, uintptr) uintptr { return 0 })
}

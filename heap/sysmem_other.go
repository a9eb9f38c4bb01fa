//go:build !linux

package heap

// SystemMemory is only implemented on linux.
func SystemMemory() (uint64, error) {
	return 0, ErrNotSupported
}

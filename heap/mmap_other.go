//go:build !unix

package heap

func mapAnonymous(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func unmap(data []byte) error {
	return nil
}

//go:build !unix

package sensor

func processCPUTime() (float64, error) {
	return 0, ErrUnsupported
}

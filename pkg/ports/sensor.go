package ports

import "context"

// CPUSensor reports the CPU load attributed to the current process, in percent.
type CPUSensor interface {
	Sample(ctx context.Context) (float64, error)
}

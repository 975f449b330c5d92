//go:build !opencl

package gpu

import "log/slog"

func newOpenCLDevice(_ *slog.Logger) (Device, error) {
	return nil, ErrOpenCLUnavailable
}

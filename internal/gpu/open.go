package gpu

import (
	"log/slog"

	"github.com/pkg/errors"
)

// ErrOpenCLUnavailable is returned by Open when the binary was built without
// the opencl tag.
var ErrOpenCLUnavailable = errors.New("gpu: OpenCL support is not enabled; rebuild with -tags opencl")

// Device names accepted by Open.
const (
	DeviceAuto   = "auto"
	DeviceSoft   = "soft"
	DeviceOpenCL = "opencl"
)

// Open returns a Context for the named device. "auto" prefers OpenCL and falls
// back to the software device.
func Open(name string, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch name {
	case DeviceSoft:
		return NewContext(NewSoftDevice(SoftOptions{}), logger), nil
	case DeviceOpenCL:
		dev, err := newOpenCLDevice(logger)
		if err != nil {
			return nil, errors.Wrap(err, "opening OpenCL device")
		}
		return NewContext(dev, logger), nil
	case DeviceAuto, "":
		dev, err := newOpenCLDevice(logger)
		if err != nil {
			logger.Warn("falling back to software device", "err", err)
			return NewContext(NewSoftDevice(SoftOptions{}), logger), nil
		}
		return NewContext(dev, logger), nil
	}
	return nil, errors.Errorf("unknown device %q (want %s, %s or %s)", name, DeviceAuto, DeviceSoft, DeviceOpenCL)
}

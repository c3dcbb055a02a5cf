package autostart

import (
	"errors"
	"runtime"
)

var ErrUnsupported = errors.New("autostart is not supported on " + runtime.GOOS)

package media

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrAlreadyRecording is returned by Start while a recording is active.
var ErrAlreadyRecording = errors.New("recording already in progress")

// CaptureErrorKind classifies why a capture device could not be acquired.
type CaptureErrorKind string

const (
	CaptureErrPermissionDenied CaptureErrorKind = "permission-denied"
	CaptureErrNoDevice         CaptureErrorKind = "no-device"
	CaptureErrOther            CaptureErrorKind = "other"
)

// CaptureError reports a failed device acquisition together with the devices
// that were visible at the time.
type CaptureError struct {
	Kind    CaptureErrorKind
	Devices []Device
	Err     error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v (%d devices visible)", e.Kind, e.Err, len(e.Devices))
}

func (e *CaptureError) Unwrap() error { return e.Err }

var (
	permissionKeywords = []string{"permission denied", "not allowed", "notallowederror", "operation not permitted"}
	noDeviceKeywords   = []string{"no such file or directory", "no such device", "cannot open", "not found", "notfounderror", "no capture device"}
)

// ClassifyCaptureError maps an acquisition failure onto a CaptureErrorKind.
func ClassifyCaptureError(err error) CaptureErrorKind {
	if err == nil {
		return CaptureErrOther
	}
	if errors.Is(err, fs.ErrPermission) {
		return CaptureErrPermissionDenied
	}
	if errors.Is(err, fs.ErrNotExist) {
		return CaptureErrNoDevice
	}

	msg := strings.ToLower(err.Error())
	for _, keyword := range permissionKeywords {
		if strings.Contains(msg, keyword) {
			return CaptureErrPermissionDenied
		}
	}
	for _, keyword := range noDeviceKeywords {
		if strings.Contains(msg, keyword) {
			return CaptureErrNoDevice
		}
	}
	return CaptureErrOther
}

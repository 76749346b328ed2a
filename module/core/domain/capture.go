package domain

import "fmt"

type CaptureErrorCode string

const (
	CapturePermissionDenied    CaptureErrorCode = "permission_denied"
	CapturePositionUnavailable CaptureErrorCode = "position_unavailable"
	CaptureTimeout             CaptureErrorCode = "timeout"
)

// CaptureError is a geolocation failure reported by the device.
type CaptureError struct {
	Code    CaptureErrorCode `json:"code"`
	Message string           `json:"message"`
}

func (e *CaptureError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("position capture: %s", e.Code)
	}
	return fmt.Sprintf("position capture: %s: %s", e.Code, e.Message)
}

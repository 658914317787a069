package domain

import "errors"

// ErrTransportNotReady indicates that the transport layer is not ready to send data.
var ErrTransportNotReady = errors.New("transport is not ready")

package usage

import "errors"

var (
	ErrUnknownCounter     = errors.New("usage: unknown counter")
	ErrCounterUnsupported = errors.New("usage: counter not supported by store")
	ErrStorageUnavailable = errors.New("usage: storage unavailable")
)

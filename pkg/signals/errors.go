package signals

import "errors"

var (
	ErrHandlerInstallFailed = errors.New("signals: handler installation failed")
)

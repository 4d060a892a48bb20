package serviceerr

import "errors"

var ErrConflict = errors.New("already exists")
var ErrNotFound = errors.New("not found")
var ErrFlowClosed = errors.New("flow closed")
var ErrFlowBusy = errors.New("authorization attempt already in progress")
var ErrUnknownProvider = errors.New("unknown provider")
var ErrProvisioning = errors.New("link token provisioning failed")

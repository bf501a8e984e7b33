package session

import "presenz/pkg/types"

// Session lifecycle errors are shared sentinels from pkg/types so the API
// layer and the admission pipeline can match them without importing this
// package's internals.
var (
	ErrAlreadyActive   = types.ErrAlreadyActive
	ErrInvalidArgument = types.ErrInvalidArgument
	ErrSessionClosed   = types.ErrSessionClosed
)

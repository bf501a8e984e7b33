package session

import "presenz/pkg/interfaces"

// Compile-time check that Manager satisfies the session interface.
var _ interfaces.SessionController = (*Manager)(nil)

package database

import "presenz/pkg/interfaces"

// Compile-time check that Manager satisfies the store interface.
var _ interfaces.AttendanceStore = (*Manager)(nil)

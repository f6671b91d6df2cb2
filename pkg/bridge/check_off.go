//go:build !handlecheck

package bridge

// checkByDefault is set in builds tagged handlecheck.
const checkByDefault = false

//go:build handlecheck

package bridge

// checkByDefault turns the liveness registry on for debug builds.
const checkByDefault = true

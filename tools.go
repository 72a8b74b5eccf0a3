//go:build tools
// +build tools

// Pins mockgen, run by the go:generate directives in contract and transport.
package tempest_share

import (
	_ "go.uber.org/mock/mockgen"
)

//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep mockgen, invoked by
// `go generate ./contract/...`, pinned in go.mod.
package chat_relay

import (
	_ "go.uber.org/mock/mockgen"
)

// Package main provides the entry point for the krcs reconciliation CLI.
package main

import (
	"github.com/jackwharrison/krcs-bitrix/cmd/krcs/cmd"
)

// Version information populated at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.Execute(version, commit)
}

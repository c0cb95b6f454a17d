// Package main is the entry point for the angr-setup CLI.
package main

import (
	"os"

	"github.com/angr/angr-native-go/cmd/angr-setup/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:]))
}

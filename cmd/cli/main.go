package main

import (
	"github.com/classgraph/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}

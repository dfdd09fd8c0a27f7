package main

import (
	"dac-sync/cmd"
)

func main() {
	cmd.Execute()
}

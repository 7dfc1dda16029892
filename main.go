package main

import (
	"mfbox/cmd"
)

func main() {
	cmd.Execute()
}

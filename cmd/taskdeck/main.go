package main

import "github.com/aussiebroadwan/taskdeck/cmd/taskdeck/cmd"

func main() {
	cmd.Execute()
}

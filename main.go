package main

import "github.com/felo/inboxforge/cmd"

func main() {
	cmd.Execute()
}

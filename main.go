package main

import "github.com/agentic-research/tc/cmd"

func main() {
	cmd.Execute()
}

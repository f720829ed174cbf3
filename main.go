package main

import "github.com/crowagent/crowagent/cmd"

func main() {
	cmd.Execute()
}

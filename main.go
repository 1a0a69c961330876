package main

import "roomboss-cli/cmd"

func main() {
	cmd.Execute()
}

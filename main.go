package main

import "cktap/cmd"

func main() {
	cmd.Execute()
}

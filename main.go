package main

import "github.com/tanq16/segdl/cmd"

func main() {
	cmd.Execute()
}

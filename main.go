package main

import "github.com/vidmill/vidmill/cmd"

func main() {
	cmd.Execute()
}

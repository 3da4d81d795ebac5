package main

import "github.com/rvalverde/rankpipe/cmd"

func main() {
	cmd.Execute()
}

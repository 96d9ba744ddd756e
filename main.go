package main

import "github.com/kozaktomas/servicehub/cmd"

func main() {
	cmd.Execute()
}

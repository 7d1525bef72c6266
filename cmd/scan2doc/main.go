package main

import "github.com/wudi/scan2doc/cmd/scan2doc/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/sw33tLie/shortscroll/cmd"

func main() {
	cmd.Execute()
}

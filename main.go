package main

import "github.com/byterings/docspace/cmd"

func main() {
	cmd.Execute()
}

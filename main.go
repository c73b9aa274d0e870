package main

import "github.com/deploymenttheory/go-ibl/cmd"

func main() {
	cmd.Execute()
}

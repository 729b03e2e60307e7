package main

import "github.com/predictkit/predictkit/cmd"

func main() {
	cmd.Execute()
}

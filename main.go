package main

import "github.com/nvr-ai/detect-demo/cmd/cmd"

func main() {
	cmd.Execute()
}

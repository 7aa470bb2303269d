package main

import "github.com/visionex-project/imagetranslator/cmd/imagetranslator/cmd"

func main() {
	cmd.Execute()
}

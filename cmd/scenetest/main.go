package main

import "github.com/mmoult/scenetest/internal/cli"

func main() {
	cli.Execute()
}

package main

import "fiscal-engine/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mcoot/tworoomsboom/internal/cli"

func main() {
	cli.Execute()
}

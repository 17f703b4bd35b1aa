package main

import "github.com/mcoot/gamehub-console/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mcoot/savebridge/internal/cli"

func main() {
	cli.Execute()
}

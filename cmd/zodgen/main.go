package main

import "github.com/syssam/zodgen/internal/cli"

func main() {
	cli.Execute()
}

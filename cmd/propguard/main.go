package main

import "github.com/propguard/propguard/internal/cli"

func main() {
	cli.Execute()
}

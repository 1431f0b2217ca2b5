package main

import "github.com/dmitrymomot/entitlements/internal/cli"

var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}

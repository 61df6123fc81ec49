package main

import (
	"market-movers-alerts/internal/cli"
)

func main() {
	cli.Execute()
}

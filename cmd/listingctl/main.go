package main

import (
	"os"

	"listing-insights-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

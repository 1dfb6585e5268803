package main

import (
	"github.com/matrufsc/cagr-scrape/internal/cli"
)

func main() {
	cli.Execute()
}

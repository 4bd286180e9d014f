package main

import (
	"go-log-analyzer/internal/cli"
)

func main() {
	cli.Execute()
}

// Package main is the entry point for vmlaunch.
package main

import (
	"context"
	"os"

	"github.com/javanstorm/vmlaunch/internal/cli"
)

func main() {
	os.Exit(cli.Main(context.Background(), os.Args[1:]))
}

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"assetview/internal/cli"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true
	cli.LoadEnvFile()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

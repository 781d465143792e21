// Command emotes-portal serves the wallet session and shared gif list over HTTP
// and manages the encrypted key files it needs.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "emotes-portal",
		Usage: "shared gif list backed by a Solana program",
		Commands: []*cli.Command{
			serveCmd, keygenCmd, rekeyCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

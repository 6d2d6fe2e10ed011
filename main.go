package main

import (
	"fmt"
	"os"

	"github.com/blacklight-gr/blacklight/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "blacklight"
	app.Usage = "general-relativistic radiative transfer renderer"
	app.Version = "0.0.1"
	app.ArgsUsage = "input_file"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Action = cmd.Render

	// The driver contract (spec.md 6) is exit 0 on success, exit 1 with
	// a single diagnostic line on any construction or I/O failure.
	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

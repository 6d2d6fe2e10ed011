package cmd

import (
	"github.com/blacklight-gr/blacklight/log"
	"github.com/urfave/cli"
)

var logger = log.New("blacklight")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

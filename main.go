// Package main is the entry point for the miru application.
package main

import (
	"github.com/miru-player/miru/cmd"
	"github.com/miru-player/miru/config"
	"github.com/miru-player/miru/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}

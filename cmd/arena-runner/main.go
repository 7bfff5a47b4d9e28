// Command arena-runner drives frame workloads against an epoch-guarded arena
// and reports allocation, reset and cleanup figures per scenario.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML configuration file",
	}
	scenarioFlag = &cli.StringSliceFlag{
		Name:    "scenario",
		Aliases: []string{"s"},
		Usage:   "scenario to run, repeatable (default: all)",
	}
	framesFlag = &cli.IntFlag{
		Name:  "frames",
		Usage: "frames per scenario",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "goroutines for multi-worker scenarios",
	}
	upstreamFlag = &cli.StringFlag{
		Name:  "upstream",
		Usage: "block source: heap or mmap",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve Prometheus metrics on this address",
	}
	watchFlag = &cli.BoolFlag{
		Name:  "watch",
		Usage: "rerun whenever the config file changes",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "text or json (default: text on a terminal)",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log block refills and resets",
	}

	runFlags = []cli.Flag{
		configFlag,
		scenarioFlag,
		framesFlag,
		workersFlag,
		upstreamFlag,
		metricsAddrFlag,
		watchFlag,
		logFormatFlag,
		verboseFlag,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:   "arena-runner",
		Usage:  "run frame workloads against an epoch-guarded arena",
		Flags:  runFlags,
		Action: runCommand,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run scenarios for a number of frames",
				Flags:  runFlags,
				Action: runCommand,
			},
			{
				Name:   "list",
				Usage:  "list available scenarios",
				Action: listCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

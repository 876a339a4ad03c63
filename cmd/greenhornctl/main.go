// Command greenhornctl is the operator console for a running greenhorn
// service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/greenhorn/internal/ctl"
	"github.com/okian/greenhorn/pkg/logger"
)

const defaultAddr = "http://localhost:9080"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "greenhornctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "greenhornctl",
		Usage: "administer the low-level burden override",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   defaultAddr,
				Usage:   "base URL of the greenhorn service",
				EnvVars: []string{"GREENHORN_CTL_ADDR"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: ctl.DefaultTimeout,
				Usage: "per-request timeout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log level for simulation output",
			},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithWriter(c.App.ErrWriter)); err != nil {
				return err
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Writer:    out,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			thresholdCommand(),
			{
				Name:  "reload",
				Usage: "re-read the threshold from the service's config file",
				Action: func(c *cli.Context) error {
					v, err := client(c).Reload(c.Context)
					if err != nil {
						return err
					}
					return printThreshold(c, v)
				},
			},
			simulateCommand(),
		},
	}
}

func thresholdCommand() *cli.Command {
	return &cli.Command{
		Name:  "threshold",
		Usage: "inspect or change the level threshold",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "print the threshold in effect",
				Action: func(c *cli.Context) error {
					v, err := client(c).Threshold(c.Context)
					if err != nil {
						return err
					}
					return printThreshold(c, v)
				},
			},
			{
				Name:      "set",
				Usage:     "replace the threshold (0 disables the override)",
				ArgsUsage: "LEVEL",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("expected exactly one LEVEL argument")
					}
					t, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return fmt.Errorf("invalid level %q", c.Args().First())
					}
					v, err := client(c).SetThreshold(c.Context, t)
					if err != nil {
						return err
					}
					return printThreshold(c, v)
				},
			},
			{
				Name:  "default",
				Usage: "restore the configured default threshold",
				Action: func(c *cli.Context) error {
					v, err := client(c).ResetThreshold(c.Context)
					if err != nil {
						return err
					}
					return printThreshold(c, v)
				},
			},
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "drive synthetic characters across the threshold and verify one warning each",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "players", Value: ctl.DefaultPlayers, Usage: "synthetic characters"},
			&cli.IntFlag{Name: "workers", Usage: "concurrent characters (default CPU cores * 2)"},
			&cli.BoolFlag{Name: "offline", Usage: "let every other character cross while logged out"},
		},
		Action: func(c *cli.Context) error {
			cl := client(c)
			if err := cl.Health(c.Context); err != nil {
				return fmt.Errorf("service health check failed: %w", err)
			}
			r, err := ctl.Simulate(c.Context, cl, ctl.SimulationConfig{
				Players: c.Int("players"),
				Workers: c.Int("workers"),
				Offline: c.Bool("offline"),
			})
			fmt.Fprintf(c.App.Writer,
				"threshold=%d players=%d crossings=%d warnings=%d failed=%d duration=%s\n",
				r.Threshold, r.Players, r.Crossings, r.Warnings, r.Failed, r.Duration.Round(time.Millisecond))
			for _, f := range r.Failures {
				fmt.Fprintln(c.App.Writer, "  -", f)
			}
			return err
		},
	}
}

func client(c *cli.Context) *ctl.Client {
	return ctl.NewClient(c.String("addr"), c.Duration("timeout"))
}

func printThreshold(c *cli.Context, v int) error {
	_, err := fmt.Fprintln(c.App.Writer, v)
	return err
}

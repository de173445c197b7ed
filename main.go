// Command ddcable loads detector geometry descriptions, runs the geometry
// algorithms they invoke and reports on or exports the result.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/ddcable/pkg/kernel/sdfx"
)

const (
	flagLogLevel = "log-level"
	flagDepth    = "depth"
	flagAll      = "all"
	flagCells    = "cells"
	flagOut      = "out"
	flagMesh     = "mesh"
)

// newLogger returns a console logger writing to stderr at the given level.
func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func readSource(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one description file")
	}
	b, err := os.ReadFile(c.Args().First())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// appFromFlags builds an App configured by the common flags.
func appFromFlags(c *cli.Context, logger *zap.SugaredLogger) *App {
	app := NewApp(logger)
	app.options.MaxDepth = c.Int(flagDepth)
	app.options.LeavesOnly = !c.Bool(flagAll)
	app.kernel.MeshCells = c.Int(flagCells)
	return app
}

func main() {
	var logger *zap.SugaredLogger

	walkFlags := []cli.Flag{
		&cli.IntFlag{Name: flagDepth, Usage: "stop this many placement levels below each root (0 = no limit)"},
		&cli.BoolFlag{Name: flagAll, Usage: "include volumes that contain other volumes"},
		&cli.IntFlag{Name: flagCells, Value: sdfx.DefaultMeshCells, Usage: "marching cubes cells along the longest axis"},
	}

	app := &cli.App{
		Name:  "ddcable",
		Usage: "build and inspect detector geometry descriptions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagLogLevel, Value: "info", Usage: "debug, info, warn or error"},
		},
		Before: func(c *cli.Context) error {
			var err error
			logger, err = newLogger(c.String(flagLogLevel))
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "run a description and list the logical parts it defines",
				ArgsUsage: "<file>",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: flagMesh, Usage: "also tessellate and report mesh sizes"},
				}, walkFlags...),
				Action: func(c *cli.Context) error {
					src, err := readSource(c)
					if err != nil {
						return err
					}
					app := appFromFlags(c, logger)
					model, result := app.Load(src)
					if w := warningsTable(result); w != "" {
						fmt.Fprintln(c.App.ErrWriter, w)
					}
					if model == nil {
						return resultError(result)
					}
					fmt.Fprintln(c.App.Writer, partsTable(model.Store))
					if !c.Bool(flagMesh) {
						return nil
					}
					result = app.Evaluate(src)
					if len(result.Errors) > 0 {
						return resultError(result)
					}
					fmt.Fprintln(c.App.Writer, meshTable(result))
					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "write the built volumes to an STL file",
				ArgsUsage: "<file>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Value: "out.stl", Usage: "STL output path"},
				}, walkFlags...),
				Action: func(c *cli.Context) error {
					src, err := readSource(c)
					if err != nil {
						return err
					}
					n, err := appFromFlags(c, logger).Export(src, c.String(flagOut))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %d volumes to %s\n", n, c.String(flagOut))
					return nil
				},
			},
			{
				Name:      "profile",
				Usage:     "show the envelope profile and solids of each cable mockup",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					src, err := readSource(c)
					if err != nil {
						return err
					}
					desc, evalErrs, err := NewApp(logger).engine.Evaluate(src)
					if err != nil {
						return err
					}
					if len(evalErrs) > 0 {
						return evalErrs[0]
					}
					plans, err := cablePlans(desc)
					if err != nil {
						return err
					}
					for _, p := range plans {
						fmt.Fprintln(c.App.Writer, profileTable(p))
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

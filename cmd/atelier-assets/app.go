// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/atelier/cmd/atelier-assets/cli"
	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/assetstorage"
	"github.com/bureau-foundation/atelier/lib/config"
	"github.com/bureau-foundation/atelier/lib/validate"
)

// app carries the process streams and the flags every command shares.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	rootDir    string
	kind       string
	json       bool
	logLevel   string
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

// flags returns a Flags function for a leaf command: the shared flags
// plus whatever bind adds.
func (a *app) flags(name string, bind func(*pflag.FlagSet)) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		flagSet.StringVar(&a.configPath, "config", "", "path to atelier.yaml (default: $"+config.EnvironmentVariable+")")
		flagSet.StringVar(&a.rootDir, "root", "", "project directory (overrides paths.root)")
		flagSet.StringVarP(&a.kind, "kind", "k", "", "asset kind: image, audio, video, structured_data, font, other")
		flagSet.BoolVar(&a.json, "json", false, "output as JSON")
		flagSet.StringVar(&a.logLevel, "log-level", "", "log level (overrides log.level)")
		if bind != nil {
			bind(flagSet)
		}
		return flagSet
	}
}

// session is an open project for one command invocation.
type session struct {
	storage *assetstorage.Storage
	out     *cli.Output
	kind    asset.Kind
	logger  *slog.Logger
}

// loadConfig resolves the configuration: --config, then
// ATELIER_CONFIG, then defaults. --root and --log-level apply last.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case a.configPath != "":
		cfg, err = config.LoadFile(a.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if a.rootDir != "" {
		cfg.Paths.Root = a.rootDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	root, err := filepath.Abs(cfg.Paths.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg.Paths.Root = root
	return cfg, nil
}

// open builds the storage facade for the configured project.
func (a *app) open() (*session, error) {
	if a.kind == "" {
		return nil, errors.New("--kind is required")
	}
	kind, err := asset.ParseKind(a.kind)
	if err != nil {
		return nil, err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	level, _ := cfg.LogLevel()
	logger := cli.NewLogger(a.stderr, level, cfg.Log.Format)

	compression, _ := cfg.Compression()
	overrides, _ := cfg.ExtensionOverrides()
	metadataDir, groupsDir, assetsDir := cfg.ResolvedPaths()

	storage := assetstorage.New(assetstorage.Options{
		Root:        cfg.Paths.Root,
		MetadataDir: metadataDir,
		GroupsDir:   groupsDir,
		AssetsDir:   assetsDir,
		Compression: compression,
		Validator:   validate.New(overrides),
		Picker:      &linePicker{input: a.stdin},
		Logger:      logger,
	})

	out := cli.NewOutput(a.json)
	out.Writer = a.stdout
	return &session{storage: storage, out: out, kind: kind, logger: logger}, nil
}

// run wraps a command body with session setup and a final flush.
func (a *app) run(body func(ctx context.Context, s *session, args []string) error) func(ctx context.Context, args []string) error {
	return func(ctx context.Context, args []string) error {
		s, err := a.open()
		if err != nil {
			return err
		}
		bodyErr := body(ctx, s, args)
		closeErr := s.storage.Close(context.WithoutCancel(ctx))
		if closeErr != nil {
			closeErr = fmt.Errorf("saving changes: %w", closeErr)
		}
		return errors.Join(bodyErr, closeErr)
	}
}

func requireArgs(args []string, count int, usage string) error {
	if len(args) != count {
		return fmt.Errorf("expected %d argument(s): %s", count, usage)
	}
	return nil
}

func (a *app) root() *cli.Command {
	return &cli.Command{
		Name:        "atelier-assets",
		Description: "Import, organize, and inspect a project's assets.",
		HelpOutput:  a.stderr,
		Subcommands: []*cli.Command{
			a.importCommand(),
			a.listCommand(),
			a.showCommand(),
			a.fetchCommand(),
			a.renameCommand(),
			a.tagCommand(),
			a.describeCommand(),
			a.duplicateCommand(),
			a.deleteCommand(),
			a.moveAssetCommand(),
			a.groupCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Import two sprites into the project in the current directory",
				Command:     "atelier-assets import --kind image hero.png enemy.png",
			},
			{
				Description: "List fonts as JSON",
				Command:     "atelier-assets list --kind font --json",
			},
		},
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/atelier/cmd/atelier-assets/cli"
	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/localasset"
)

// importEntry is the JSON shape of one import outcome.
type importEntry struct {
	Path  string       `json:"path"`
	Asset *asset.Asset `json:"asset,omitempty"`
	Code  string       `json:"code,omitempty"`
	Error string       `json:"error,omitempty"`
}

func (a *app) importCommand() *cli.Command {
	var fromStdin bool
	return &cli.Command{
		Name:        "import",
		Summary:     "Copy files into the project as assets",
		Description: "Validate each file against the kind, copy it into the asset store, and record its metadata. A failing file does not stop the rest of the batch; the command exits 1 if any file failed.",
		Usage:       "atelier-assets import --kind <kind> [--stdin] <path>...",
		Flags: a.flags("import", func(flagSet *pflag.FlagSet) {
			flagSet.BoolVar(&fromStdin, "stdin", false, "read paths from stdin, one per line")
		}),
		Examples: []cli.Example{
			{
				Description: "Import every PNG under art/",
				Command:     "find art -name '*.png' | atelier-assets import --kind image --stdin",
			},
		},
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			var (
				results []localasset.ImportResult
				err     error
			)
			switch {
			case fromStdin && len(args) > 0:
				return errors.New("--stdin cannot be combined with path arguments")
			case fromStdin:
				results, err = s.storage.ImportLocalAssets(ctx, s.kind)
			case len(args) == 0:
				return errors.New("no paths given (pass paths or --stdin)")
			default:
				paths := make([]string, len(args))
				for i, arg := range args {
					if paths[i], err = filepath.Abs(arg); err != nil {
						return fmt.Errorf("resolving %q: %w", arg, err)
					}
				}
				results, err = s.storage.ImportFromPaths(ctx, s.kind, paths)
			}
			if err != nil {
				return err
			}

			summary := localasset.Summary(results)
			entries := make([]importEntry, len(results))
			for i, result := range results {
				entries[i] = importEntry{Path: result.Path, Asset: result.Asset}
				if result.Err != nil {
					entries[i].Code = string(asset.CodeOf(result.Err))
					entries[i].Error = result.Err.Error()
				}
			}
			done, err := s.out.EmitJSON(entries)
			if err != nil {
				return err
			}
			if !done {
				for _, entry := range entries {
					if entry.Asset != nil {
						s.out.Printf("imported %s as %s (%s)\n", entry.Path, entry.Asset.Name, entry.Asset.ID)
					} else {
						s.out.Printf("failed   %s: %s\n", entry.Path, entry.Error)
					}
				}
				s.out.Printf("%s\n", summary)
			}
			if summary.Failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		}),
	}
}

func (a *app) listCommand() *cli.Command {
	var groupID string
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Summary: "List the assets of a kind",
		Usage:   "atelier-assets list --kind <kind> [--group <id>]",
		Flags: a.flags("list", func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&groupID, "group", "", "only list assets in this group")
		}),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 0, "no positional arguments"); err != nil {
				return err
			}
			var (
				assets []asset.Asset
				err    error
			)
			if groupID != "" {
				if _, err = s.storage.GetGroup(ctx, s.kind, groupID); err != nil {
					return err
				}
				assets, err = s.storage.ListAssetsInGroup(ctx, s.kind, groupID)
			} else {
				assets, err = s.storage.ListAssets(ctx, s.kind)
			}
			if err != nil {
				return err
			}
			if done, err := s.out.EmitJSON(assets); done {
				return err
			}
			rows := make([][]string, 0, len(assets))
			for _, record := range assets {
				rows = append(rows, []string{
					record.ID,
					record.Name,
					record.GroupID,
					strings.Join(record.Tags, ","),
					strconv.FormatInt(record.Size, 10),
				})
			}
			return s.out.Table([]string{"ID", "NAME", "GROUP", "TAGS", "SIZE"}, rows)
		}),
	}
}

// printAsset writes one record as JSON or as a key/value block.
func printAsset(s *session, record asset.Asset) error {
	if done, err := s.out.EmitJSON(record); done {
		return err
	}
	rows := [][]string{
		{"id", record.ID},
		{"kind", string(record.Kind)},
		{"name", record.Name},
		{"source", string(record.Source)},
		{"group", record.GroupID},
		{"tags", strings.Join(record.Tags, ", ")},
		{"description", record.Description},
		{"original_path", record.OriginalPath},
		{"content_hash", record.ContentHash},
		{"size", strconv.FormatInt(record.Size, 10)},
	}
	return s.out.Table([]string{"FIELD", "VALUE"}, rows)
}

func (a *app) showCommand() *cli.Command {
	return &cli.Command{
		Name:    "show",
		Summary: "Show one asset's metadata record",
		Usage:   "atelier-assets show --kind <kind> <id>",
		Flags:   a.flags("show", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<id>"); err != nil {
				return err
			}
			record, err := s.storage.GetAsset(ctx, s.kind, args[0])
			if err != nil {
				return err
			}
			return printAsset(s, record)
		}),
	}
}

// fetchEntry is the JSON shape of a fetched asset: the record plus
// whatever the kind reader extracted.
type fetchEntry struct {
	Asset    asset.Asset `json:"asset"`
	Metadata any         `json:"metadata"`
	Payload  any         `json:"payload,omitempty"`
}

func (a *app) fetchCommand() *cli.Command {
	var output string
	return &cli.Command{
		Name:        "fetch",
		Summary:     "Read an asset's payload and extracted metadata",
		Description: "Read the stored bytes through the kind's reader and print what it extracted. With --output, also write the raw bytes to a file.",
		Usage:       "atelier-assets fetch --kind <kind> <id> [--output <path>]",
		Flags: a.flags("fetch", func(flagSet *pflag.FlagSet) {
			flagSet.StringVarP(&output, "output", "o", "", "write the raw payload to this path")
		}),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<id>"); err != nil {
				return err
			}
			record, err := s.storage.GetAsset(ctx, s.kind, args[0])
			if err != nil {
				return err
			}
			result, err := s.storage.FetchAsset(ctx, s.kind, args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, result.Data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
			}
			entry := fetchEntry{Asset: record, Metadata: result.Metadata, Payload: result.Payload}
			if done, err := s.out.EmitJSON(entry); done {
				return err
			}
			s.out.Printf("%s (%s): %d bytes\n", record.Name, record.ID, len(result.Data))
			s.out.Printf("%+v\n", result.Metadata)
			return nil
		}),
	}
}

func (a *app) renameCommand() *cli.Command {
	return &cli.Command{
		Name:    "rename",
		Summary: "Change an asset's display name",
		Usage:   "atelier-assets rename --kind <kind> <id> <name>",
		Flags:   a.flags("rename", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 2, "<id> <name>"); err != nil {
				return err
			}
			record, err := s.storage.RenameAsset(ctx, s.kind, args[0], args[1])
			if err != nil {
				return err
			}
			return printAsset(s, record)
		}),
	}
}

func (a *app) tagCommand() *cli.Command {
	return &cli.Command{
		Name:        "tag",
		Summary:     "Replace an asset's tags",
		Description: "Replace the asset's tag set with the given tags. Passing no tags clears them.",
		Usage:       "atelier-assets tag --kind <kind> <id> [tag...]",
		Flags:       a.flags("tag", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if len(args) < 1 {
				return errors.New("expected <id> [tag...]")
			}
			record, err := s.storage.UpdateTags(ctx, s.kind, args[0], args[1:])
			if err != nil {
				return err
			}
			return printAsset(s, record)
		}),
	}
}

func (a *app) describeCommand() *cli.Command {
	return &cli.Command{
		Name:    "describe",
		Summary: "Set an asset's description",
		Usage:   "atelier-assets describe --kind <kind> <id> <text>",
		Flags:   a.flags("describe", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if len(args) < 1 {
				return errors.New("expected <id> <text>")
			}
			record, err := s.storage.UpdateDescription(ctx, s.kind, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printAsset(s, record)
		}),
	}
}

func (a *app) duplicateCommand() *cli.Command {
	return &cli.Command{
		Name:    "duplicate",
		Summary: "Copy an asset under a new id",
		Usage:   "atelier-assets duplicate --kind <kind> <id>",
		Flags:   a.flags("duplicate", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<id>"); err != nil {
				return err
			}
			record, err := s.storage.DuplicateAsset(ctx, s.kind, args[0])
			if err != nil {
				return err
			}
			return printAsset(s, record)
		}),
	}
}

func (a *app) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Summary: "Remove an asset and its stored bytes",
		Usage:   "atelier-assets delete --kind <kind> <id>",
		Flags:   a.flags("delete", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<id>"); err != nil {
				return err
			}
			record, err := s.storage.DeleteAsset(ctx, s.kind, args[0])
			if err != nil {
				return err
			}
			if done, err := s.out.EmitJSON(record); done {
				return err
			}
			s.out.Printf("deleted %s (%s)\n", record.Name, record.ID)
			return nil
		}),
	}
}

func (a *app) moveAssetCommand() *cli.Command {
	var groupID string
	return &cli.Command{
		Name:        "move-asset",
		Summary:     "Put an asset into a group",
		Description: "Move the asset into the group named by --group. Without --group the asset is ungrouped.",
		Usage:       "atelier-assets move-asset --kind <kind> <id> [--group <group-id>]",
		Flags: a.flags("move-asset", func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&groupID, "group", "", "target group id (empty to ungroup)")
		}),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<id>"); err != nil {
				return err
			}
			record, err := s.storage.MoveAssetToGroup(ctx, s.kind, args[0], groupID)
			if err != nil {
				return err
			}
			return printAsset(s, record)
		}),
	}
}

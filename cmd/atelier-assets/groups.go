// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/atelier/cmd/atelier-assets/cli"
	"github.com/bureau-foundation/atelier/lib/asset"
)

func (a *app) groupCommand() *cli.Command {
	return &cli.Command{
		Name:        "group",
		Summary:     "Organize assets into folder-like groups",
		Description: "Groups form a tree per kind. An asset belongs to at most one group.",
		Subcommands: []*cli.Command{
			a.groupCreateCommand(),
			a.groupRenameCommand(),
			a.groupMoveCommand(),
			a.groupDeleteCommand(),
			a.groupListCommand(),
		},
	}
}

// groupEntry is a group with its path from the root, for listings.
type groupEntry struct {
	asset.Group
	Path []string `json:"path"`
}

func printGroup(ctx context.Context, s *session, group asset.Group) error {
	path, err := s.storage.GroupPath(ctx, s.kind, group.ID)
	if err != nil {
		return err
	}
	if done, err := s.out.EmitJSON(groupEntry{Group: group, Path: path}); done {
		return err
	}
	s.out.Printf("%s  %s\n", group.ID, strings.Join(path, "/"))
	return nil
}

func (a *app) groupCreateCommand() *cli.Command {
	var parentID string
	return &cli.Command{
		Name:    "create",
		Summary: "Create a group",
		Usage:   "atelier-assets group create --kind <kind> <name> [--parent <group-id>]",
		Flags: a.flags("create", func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&parentID, "parent", "", "parent group id (empty for a root group)")
		}),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<name>"); err != nil {
				return err
			}
			group, err := s.storage.CreateGroup(ctx, s.kind, args[0], parentID)
			if err != nil {
				return err
			}
			return printGroup(ctx, s, group)
		}),
	}
}

func (a *app) groupRenameCommand() *cli.Command {
	return &cli.Command{
		Name:    "rename",
		Summary: "Rename a group",
		Usage:   "atelier-assets group rename --kind <kind> <group-id> <name>",
		Flags:   a.flags("rename", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 2, "<group-id> <name>"); err != nil {
				return err
			}
			group, err := s.storage.RenameGroup(ctx, s.kind, args[0], args[1])
			if err != nil {
				return err
			}
			return printGroup(ctx, s, group)
		}),
	}
}

func (a *app) groupMoveCommand() *cli.Command {
	var parentID string
	return &cli.Command{
		Name:        "move",
		Summary:     "Reparent a group",
		Description: "Move a group under --parent, or to the root without it. Moving a group under itself or one of its descendants is refused.",
		Usage:       "atelier-assets group move --kind <kind> <group-id> [--parent <group-id>]",
		Flags: a.flags("move", func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&parentID, "parent", "", "new parent group id (empty for the root)")
		}),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<group-id>"); err != nil {
				return err
			}
			group, err := s.storage.MoveGroupToParent(ctx, s.kind, args[0], parentID)
			if err != nil {
				return err
			}
			return printGroup(ctx, s, group)
		}),
	}
}

func (a *app) groupDeleteCommand() *cli.Command {
	var recursive bool
	return &cli.Command{
		Name:        "delete",
		Aliases:     []string{"rm"},
		Summary:     "Delete a group",
		Description: "Delete a group and the assets in it. A group with child groups is only deleted with --recursive, which removes the whole subtree and every asset in it.",
		Usage:       "atelier-assets group delete --kind <kind> <group-id> [--recursive]",
		Flags: a.flags("delete", func(flagSet *pflag.FlagSet) {
			flagSet.BoolVarP(&recursive, "recursive", "r", false, "also delete child groups")
		}),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 1, "<group-id>"); err != nil {
				return err
			}
			if err := s.storage.DeleteGroup(ctx, s.kind, args[0], recursive); err != nil {
				return err
			}
			if done, err := s.out.EmitJSON(map[string]string{"deleted": args[0]}); done {
				return err
			}
			s.out.Printf("deleted group %s\n", args[0])
			return nil
		}),
	}
}

func (a *app) groupListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Summary: "List the groups of a kind",
		Usage:   "atelier-assets group list --kind <kind>",
		Flags:   a.flags("list", nil),
		Run: a.run(func(ctx context.Context, s *session, args []string) error {
			if err := requireArgs(args, 0, "no positional arguments"); err != nil {
				return err
			}
			groups, err := s.storage.ListGroups(ctx, s.kind)
			if err != nil {
				return err
			}
			entries := make([]groupEntry, 0, len(groups))
			for _, group := range groups {
				path, err := s.storage.GroupPath(ctx, s.kind, group.ID)
				if err != nil {
					return err
				}
				entries = append(entries, groupEntry{Group: group, Path: path})
			}
			if done, err := s.out.EmitJSON(entries); done {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.ID, strings.Join(entry.Path, "/")})
			}
			return s.out.Table([]string{"ID", "PATH"}, rows)
		}),
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToNestedSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "atelier-assets",
		Subcommands: []*Command{
			{
				Name: "group",
				Subcommands: []*Command{
					{
						Name: "create",
						Run: func(ctx context.Context, args []string) error {
							called = "group create"
							receivedArgs = args
							return nil
						},
					},
				},
			},
			{
				Name: "list",
				Run: func(ctx context.Context, args []string) error {
					called = "list"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"group", "create", "characters"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "group create" {
		t.Errorf("dispatched to %q, want %q", called, "group create")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "characters" {
		t.Errorf("args = %v, want [characters]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var kind string
	var target string

	command := &Command{
		Name: "show",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flagSet.StringVar(&kind, "kind", "image", "asset kind")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--kind", "font", "abc123"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if kind != "font" {
		t.Errorf("kind = %q, want font", kind)
	}
	if target != "abc123" {
		t.Errorf("target = %q, want abc123", target)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "delete",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			flagSet.Bool("recursive", false, "delete the subtree")
			flagSet.String("kind", "", "asset kind")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--recursvie"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --recursive") {
		t.Errorf("error = %q, want suggestion for '--recursive'", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "atelier-assets",
		Subcommands: []*Command{
			{Name: "import"},
			{Name: "rename"},
			{Name: "duplicate"},
		},
	}

	err := root.Execute(context.Background(), []string{"renmae"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "rename"`) {
		t.Errorf("error = %q, want suggestion for 'rename'", err.Error())
	}

	err = root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion for distant input", err)
	}
}

func TestCommand_Execute_HelpAndMissingSubcommand(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:       "atelier-assets",
		Summary:    "Manage project assets",
		HelpOutput: &help,
		Subcommands: []*Command{
			{Name: "group", Summary: "Group operations", Subcommands: []*Command{{Name: "list"}}},
		},
	}

	for _, helpArg := range []string{"-h", "--help", "help"} {
		help.Reset()
		if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
			t.Errorf("Execute(%q) error: %v", helpArg, err)
		}
		if !strings.Contains(help.String(), "Group operations") {
			t.Errorf("help for %q missing subcommand summary:\n%s", helpArg, help.String())
		}
	}

	help.Reset()
	err := root.Execute(context.Background(), []string{"group"})
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v, want 'subcommand required'", err)
	}
	if !strings.Contains(help.String(), "atelier-assets group <command>") {
		t.Errorf("nested help should inherit the root's output and full name:\n%s", help.String())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "atelier-assets",
		Description: "Import, organize, and inspect project assets.",
		Subcommands: []*Command{
			{Name: "import", Summary: "Import files as assets"},
			{Name: "list", Summary: "List assets of a kind"},
		},
		Examples: []Example{
			{
				Description: "Import two sprites",
				Command:     "atelier-assets import --kind image hero.png enemy.png",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Import, organize, and inspect project assets.",
		"Usage:",
		"atelier-assets <command> [flags]",
		"Commands:",
		"Import files as assets",
		"Examples:",
		"# Import two sprites",
		"Run 'atelier-assets <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "atelier-assets"}
	group := &Command{Name: "group", parent: root}
	create := &Command{Name: "create", parent: group}

	if got := create.fullName(); got != "atelier-assets group create" {
		t.Errorf("fullName() = %q", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"rename", "rename", 0},
		{"renmae", "rename", 2},
		{"tag", "tags", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
		if got := levenshtein(test.b, test.a); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d (symmetry)", test.b, test.a, got, test.want)
		}
	}
}

func TestOutputJSONNormalizesNilSlices(t *testing.T) {
	var buffer bytes.Buffer
	output := &Output{Writer: &buffer, JSON: true}

	var empty []string
	done, err := output.EmitJSON(empty)
	if !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("output = %q, want []", buffer.String())
	}

	text := &Output{Writer: &buffer}
	if done, _ := text.EmitJSON(empty); done {
		t.Error("EmitJSON wrote in text mode")
	}
}

func TestOutputTable(t *testing.T) {
	var buffer bytes.Buffer
	output := &Output{Writer: &buffer}
	if err := output.Table([]string{"ID", "NAME"}, [][]string{{"a1", "hero"}, {"b22", "enemy"}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buffer.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buffer.String())
	}
	if strings.Index(lines[1], "hero") != strings.Index(lines[0], "NAME") {
		t.Errorf("columns not aligned:\n%s", buffer.String())
	}
}

func TestCommand_Execute_Aliases(t *testing.T) {
	var called string
	root := &Command{
		Name: "atelier-assets",
		Subcommands: []*Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Run: func(ctx context.Context, args []string) error {
					called = "list"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"ls"}); err != nil {
		t.Fatalf("Execute(ls): %v", err)
	}
	if called != "list" {
		t.Errorf("alias dispatched to %q, want list", called)
	}

	var help bytes.Buffer
	root.PrintHelp(&help)
	if !strings.Contains(help.String(), "list (ls)") {
		t.Errorf("help should show aliases:\n%s", help.String())
	}
}

func TestClosestPrefersNearest(t *testing.T) {
	if got := closest("grup", []string{"import", "group", "groups"}); got != "group" {
		t.Errorf("closest = %q, want group", got)
	}
	if got := closest("xyzzy", []string{"import", "list"}); got != "" {
		t.Errorf("closest = %q, want no suggestion", got)
	}
}

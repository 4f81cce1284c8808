// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/atelier/cmd/atelier-assets/cli"
	"github.com/bureau-foundation/atelier/lib/asset"
	"github.com/bureau-foundation/atelier/lib/config"
	"github.com/bureau-foundation/atelier/lib/testutil"
)

// project is a temporary project directory the commands run against.
type project struct {
	t    *testing.T
	root string
}

func newProject(t *testing.T) *project {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	return &project{t: t, root: t.TempDir()}
}

// run executes one command line with --json and --root appended,
// returning stdout and the command's error.
func (p *project) run(stdin string, args ...string) ([]byte, error) {
	p.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append(append([]string(nil), args...), "--json", "--root", p.root)
	err := newApp(strings.NewReader(stdin), &stdout, &stderr).root().Execute(context.Background(), full)
	return stdout.Bytes(), err
}

func (p *project) mustRun(target any, args ...string) {
	p.t.Helper()
	output, err := p.run("", args...)
	if err != nil {
		p.t.Fatalf("%v: %v", args, err)
	}
	if target == nil {
		return
	}
	if err := json.Unmarshal(output, target); err != nil {
		p.t.Fatalf("%v: decoding output %q: %v", args, output, err)
	}
}

func TestImportListAndShow(t *testing.T) {
	p := newProject(t)
	source := t.TempDir()
	hero := testutil.WriteFile(t, source, "hero.png", testutil.PNG(t, 4, 4))

	var imported []importEntry
	p.mustRun(&imported, "import", "--kind", "image", hero)
	if len(imported) != 1 || imported[0].Asset == nil {
		t.Fatalf("import output = %+v", imported)
	}
	id := imported[0].Asset.ID
	if imported[0].Asset.Name != "hero" {
		t.Errorf("imported name = %q, want hero", imported[0].Asset.Name)
	}
	if _, err := os.Stat(filepath.Join(p.root, "metadata", "image.cbor")); err != nil {
		t.Errorf("metadata shard not written: %v", err)
	}

	var listed []asset.Asset
	p.mustRun(&listed, "list", "-k", "image")
	if len(listed) != 1 || listed[0].ID != id {
		t.Fatalf("list = %+v, want the imported asset", listed)
	}

	var shown asset.Asset
	p.mustRun(&shown, "tag", "-k", "image", id, "player", "sprite")
	p.mustRun(&shown, "show", "-k", "image", id)
	if strings.Join(shown.Tags, ",") != "player,sprite" {
		t.Errorf("tags after reopen = %v", shown.Tags)
	}
}

func TestImportFailureExitsNonZero(t *testing.T) {
	p := newProject(t)
	source := t.TempDir()
	good := testutil.WriteFile(t, source, "good.png", testutil.PNG(t, 2, 2))
	bad := testutil.WriteFile(t, source, "bad.png", testutil.JPEG(t, 2, 2))

	output, err := p.run("", "import", "--kind", "image", good, bad)
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("err = %v, want exit code 1", err)
	}
	var entries []importEntry
	if err := json.Unmarshal(output, &entries); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Asset == nil || entries[0].Error != "" {
		t.Errorf("first entry should succeed: %+v", entries[0])
	}
	if entries[1].Code != string(asset.CodeValidationFailed) {
		t.Errorf("second entry code = %q, want %q", entries[1].Code, asset.CodeValidationFailed)
	}
}

func TestImportFromStdin(t *testing.T) {
	p := newProject(t)
	source := t.TempDir()
	first := testutil.WriteFile(t, source, "a.json", []byte(`{"a": 1}`))
	second := testutil.WriteFile(t, source, "b.yaml", []byte("b: 2\n"))

	output, err := p.run("# level data\n"+first+"\n\n"+second+"\n", "import", "-k", "data", "--stdin")
	if err != nil {
		t.Fatalf("import --stdin: %v", err)
	}
	var entries []importEntry
	if err := json.Unmarshal(output, &entries); err != nil {
		t.Fatalf("decoding %q: %v", output, err)
	}
	if len(entries) != 2 || entries[0].Path != first || entries[1].Path != second {
		t.Errorf("entries = %+v", entries)
	}
}

func TestGroupWorkflow(t *testing.T) {
	p := newProject(t)

	var world, level groupEntry
	p.mustRun(&world, "group", "create", "-k", "image", "world")
	p.mustRun(&level, "group", "create", "-k", "image", "level-1", "--parent", world.ID)
	if strings.Join(level.Path, "/") != "world/level-1" {
		t.Errorf("level path = %v", level.Path)
	}

	// world under its own child is a cycle.
	_, err := p.run("", "group", "move", "-k", "image", world.ID, "--parent", level.ID)
	if !errors.Is(err, asset.ErrConflict) {
		t.Errorf("cyclic move err = %v, want conflict", err)
	}
	_, err = p.run("", "group", "delete", "-k", "image", world.ID)
	if !errors.Is(err, asset.ErrConflict) {
		t.Errorf("non-recursive delete err = %v, want conflict", err)
	}

	var groups []groupEntry
	p.mustRun(&groups, "group", "list", "-k", "image")
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	p.mustRun(nil, "group", "delete", "-k", "image", world.ID, "--recursive")
	groups = nil
	p.mustRun(&groups, "group", "list", "-k", "image")
	if len(groups) != 0 {
		t.Errorf("groups after recursive delete = %+v", groups)
	}
}

func TestMoveAssetIntoGroup(t *testing.T) {
	p := newProject(t)
	source := t.TempDir()
	path := testutil.WriteFile(t, source, "theme.wav", testutil.WAV(44100, 2, 16, 100))

	var imported []importEntry
	p.mustRun(&imported, "import", "-k", "audio", path)
	var music groupEntry
	p.mustRun(&music, "group", "create", "-k", "audio", "music")

	var moved asset.Asset
	p.mustRun(&moved, "move-asset", "-k", "audio", imported[0].Asset.ID, "--group", music.ID)
	if moved.GroupID != music.ID {
		t.Errorf("group id = %q, want %q", moved.GroupID, music.ID)
	}

	var inGroup []asset.Asset
	p.mustRun(&inGroup, "list", "-k", "audio", "--group", music.ID)
	if len(inGroup) != 1 {
		t.Errorf("got %d assets in group, want 1", len(inGroup))
	}
}

func TestFetchWritesPayload(t *testing.T) {
	p := newProject(t)
	source := t.TempDir()
	data := []byte("title: forest\n")
	path := testutil.WriteFile(t, source, "level.yaml", data)

	var imported []importEntry
	p.mustRun(&imported, "import", "-k", "structured_data", path)
	destination := filepath.Join(t.TempDir(), "out.yaml")
	p.mustRun(nil, "fetch", "-k", "structured_data", imported[0].Asset.ID, "--output", destination)

	written, err := os.ReadFile(destination)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, data) {
		t.Errorf("fetched bytes = %q, want %q", written, data)
	}
}

func TestKindRequired(t *testing.T) {
	p := newProject(t)
	if _, err := p.run("", "list"); err == nil || !strings.Contains(err.Error(), "--kind") {
		t.Errorf("err = %v, want a --kind error", err)
	}
	if _, err := p.run("", "list", "--kind", "spreadsheet"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestUnknownAssetIsNotFound(t *testing.T) {
	p := newProject(t)
	_, err := p.run("", "show", "-k", "font", "0123456789abcdef0123456789abcdef")
	if !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

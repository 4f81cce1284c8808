// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Atelier-assets is the command-line front end to a project's asset
// store. It imports files (import), inspects them (list, show, fetch),
// edits their metadata (rename, tag, describe), copies and removes
// them (duplicate, delete), and organizes them into per-kind group
// trees (group create, rename, move, delete, list; move-asset).
//
// Every command takes --kind. The project is located by --root, or by
// paths.root in the file named by --config or ATELIER_CONFIG. Output
// is a text table at a terminal and JSON otherwise (or with --json).
package main

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package localasset owns the bytes of locally sourced assets: it
// imports files into the project, reads them back through the kind
// readers, duplicates them, and deletes them.
//
// Payloads are stored under the assets directory at a path derived
// from the asset id, never from the content hash:
//
//	<assets>/<id[0:2]>/<id[2:4]>/<id[4:]>
//
// so two byte-identical imports produce two independent files. The
// two-level prefix keeps any single directory small.
//
// Batch import never aborts. [Manager.ImportFromPaths] returns one
// [ImportResult] per input path in input order, carrying either the
// new record or the reason that path was rejected.
package localasset

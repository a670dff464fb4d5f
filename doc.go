//go:generate flatc --go --go-namespace fb -o internal schema/index.fbs

// Package pvf reads encrypted game-resource archives.
//
// An archive is a header, an encrypted directory of entries and a content
// region holding every entry encrypted with its own key. [Archive] decodes
// the directory once, then decrypts entries on demand. Entry paths are
// lowercase and slash-separated; lookups accept any case and backslashes.
//
// Most entries are typed record blobs. They reference a global string
// table and, through cross references, per-directory key>value text files.
// [Archive.DecodeFile] resolves all of that into a token sequence and
// [Archive.Tree] rebuilds the section hierarchy those tokens describe.
//
// # Quick Start
//
//	a, err := pvf.Open("Script.pvf")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	t, err := a.Tree("equipment/weapon/sword.equ")
//	if err != nil {
//	    return err
//	}
//	for key, node := range t.Roots() {
//	    fmt.Println(key, len(node.Children))
//	}
//
// # Errors
//
// Opening fails with [ErrFormat] when the header or directory is malformed.
// Reading a missing path fails with [ErrNotFound], which also matches
// fs.ErrNotExist. An entry whose bytes cannot be read or decoded fails
// with [ErrCorruptEntry]; batch operations log and skip such entries.
// Cross references that point nowhere are dropped and logged unless
// [DecodeStrict] is set, in which case they fail with [ErrReference].
//
// The package implements fs.FS and related interfaces for stdlib
// compatibility. Files read through it hold decrypted content.
package pvf

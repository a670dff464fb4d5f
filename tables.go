package pvf

import (
	"fmt"
	"log/slog"

	"github.com/meigma/pvf/internal/pathutil"
	"github.com/meigma/pvf/table"
)

// Strings returns the global string table, loading it on first use.
func (a *Archive) Strings() (*table.StringTable, error) {
	return a.strings()
}

func (a *Archive) loadStrings() (*table.StringTable, error) {
	data, err := a.readFile("strings", a.stringTablePath, false)
	if err != nil {
		return nil, err
	}
	st, err := table.ParseStringTable(data, a.codec)
	if err != nil {
		return nil, fmt.Errorf("string table %s: %w", a.stringTablePath, err)
	}
	a.log().Debug("string table loaded", slog.Int("strings", st.Len()))
	return st, nil
}

// IDPaths decodes the id table at blobPath. Resolved paths are relative to
// the directory containing blobPath.
func (a *Archive) IDPaths(blobPath string) (*table.IDPathTable, error) {
	return a.IDPathsWithBase(blobPath, pathutil.Dir(NormalizePath(blobPath)))
}

// IDPathsWithBase decodes the id table at blobPath, resolving paths
// relative to baseDir.
func (a *Archive) IDPathsWithBase(blobPath, baseDir string) (*table.IDPathTable, error) {
	st, err := a.strings()
	if err != nil {
		return nil, err
	}
	data, err := a.readFile("idpaths", blobPath, false)
	if err != nil {
		return nil, err
	}
	t, err := table.ParseIDPathTable(data, baseDir, st)
	if err != nil {
		return nil, fmt.Errorf("id table %s: %w", blobPath, err)
	}
	return t, nil
}

func (a *Archive) loadLinks() (*table.IDPathTable, error) {
	t, err := a.IDPaths(a.stringLinkPath)
	if err != nil {
		return nil, err
	}
	a.log().Debug("string link table loaded", slog.Int("ids", t.Len()))
	return t, nil
}

// KeyText returns the key>value table at path. Tables are parsed once per
// path and shared afterwards.
func (a *Archive) KeyText(path string) (*table.KeyTextTable, error) {
	p := NormalizePath(path)
	if t, ok := a.keyTexts.Load(p); ok {
		return t.(*table.KeyTextTable), nil //nolint:errcheck // only *table.KeyTextTable is stored
	}
	result, err, _ := a.tableGroup.Do(p, func() (any, error) {
		if t, ok := a.keyTexts.Load(p); ok {
			return t, nil
		}
		data, err := a.readFile("keytext", p, false)
		if err != nil {
			return nil, err
		}
		t := table.ParseKeyTextTable(data, a.codec)
		a.keyTexts.Store(p, t)
		a.log().Debug("key text table loaded", slog.String("path", p), slog.Int("keys", t.Len()))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*table.KeyTextTable), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// ResolveLink resolves a cross reference: id selects a key>value table
// through the string link table, and key is looked up in it. Every failure
// wraps ErrReference.
func (a *Archive) ResolveLink(id uint32, key string) (string, error) {
	links, err := a.links()
	if err != nil {
		return "", fmt.Errorf("%w: string link table: %w", ErrReference, err)
	}
	path, ok := links.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: link id %d not in %s", ErrReference, id, a.stringLinkPath)
	}
	kt, err := a.KeyText(path)
	if err != nil {
		return "", fmt.Errorf("%w: link id %d: %w", ErrReference, id, err)
	}
	text, ok := kt.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: key %q not in %s", ErrReference, key, path)
	}
	return text, nil
}

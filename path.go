package pvf

import "github.com/meigma/pvf/internal/pathutil"

// NormalizePath converts a user-provided path to the directory's key form.
//
// It performs the following transformations:
//   - Lowercases: "Equipment/Sword.EQU" → "equipment/sword.equ"
//   - Converts backslashes: `etc\a.str` → "etc/a.str"
//   - Strips leading slashes: "/etc/a.str" → "etc/a.str"
//
// Archive paths are compared case-insensitively, so every lookup method
// applies NormalizePath first.
func NormalizePath(p string) string {
	return pathutil.Normalize(p)
}

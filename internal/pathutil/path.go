// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import "strings"

// Normalize converts a caller-supplied path into the directory's key form:
// lowercase, forward slashes, no leading slash.
func Normalize(path string) string {
	path = strings.ToLower(path)
	path = strings.ReplaceAll(path, `\`, "/")
	return strings.TrimLeft(path, "/")
}

// Dir returns everything before the last slash of path, or "" when path
// has no slash.
func Dir(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// DirPrefix converts a directory name to its prefix form.
// For ".", returns "" (empty prefix matches all).
func DirPrefix(name string) string {
	if name == "." {
		return ""
	}
	return name + "/"
}

// Child extracts the immediate child name from a full path given a prefix.
// Returns the child name and whether it's a subdirectory (has more path components).
// If path doesn't have the prefix, behavior is undefined.
func Child(path, prefix string) (name string, isSubDir bool) {
	relPath := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(relPath, "/"); idx >= 0 {
		return relPath[:idx], true
	}
	return relPath, false
}

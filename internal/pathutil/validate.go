// Package pathutil lays out output directories and keeps tool-supplied paths
// inside a root directory.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned by Confine for a path that leaves its root.
var ErrOutsideRoot = errors.New("path is outside the root directory")

// RedactPath shortens a path to .../<parent>/<basename> for logs and error
// messages, e.g. "/home/user/run/config.yaml" becomes ".../run/config.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Confine resolves p against root and returns the absolute result. Relative
// paths are joined to root. Symlinks are followed as far as the path exists,
// so a linked directory under root cannot point outside it. The path itself
// need not exist.
func Confine(root, p string) (string, error) {
	if p == "" {
		return "", errors.New("path is empty")
	}
	if strings.ContainsRune(p, '\x00') {
		return "", errors.New("path contains a null byte")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	p = filepath.Clean(p)

	realRoot, err := evalExisting(absRoot)
	if err != nil {
		return "", err
	}
	realPath, err := evalExisting(p)
	if err != nil {
		return "", err
	}
	if !within(realPath, realRoot) {
		return "", fmt.Errorf("%s: %w", RedactPath(p), ErrOutsideRoot)
	}
	return p, nil
}

// evalExisting follows symlinks on the longest existing prefix of p and
// appends the missing tail unchanged.
func evalExisting(p string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(p)
	if parent == p {
		return "", fmt.Errorf("cannot resolve %s", RedactPath(p))
	}
	head, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(head, filepath.Base(p)), nil
}

// within reports whether p is root or lies below it.
func within(p, root string) bool {
	if p == root {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(root, string(os.PathSeparator))+string(os.PathSeparator))
}

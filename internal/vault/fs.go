package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepfates/silicon/internal/models"
)

const markdownExt = ".md"

// FSVault is a Vault over a directory of markdown files. Documents are
// identified by their slash-separated path relative to the root; version
// stamps are file mtimes in unix nanoseconds.
type FSVault struct {
	root           string
	ignorePrefixes []string
}

// NewFSVault creates a vault rooted at dir. ignorePrefixes are vault-relative
// path prefixes whose documents are excluded from enumeration and lookup.
func NewFSVault(dir string, ignorePrefixes []string) (*FSVault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}
	return &FSVault{root: abs, ignorePrefixes: ignorePrefixes}, nil
}

// Root returns the absolute vault root directory.
func (v *FSVault) Root() string {
	return v.root
}

// List enumerates all non-ignored markdown documents and their stamps.
func (v *FSVault) List(ctx context.Context) ([]models.DocumentInfo, error) {
	var docs []models.DocumentInfo
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.obsidian, .git) hold no documents.
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != markdownExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel := v.relPath(path)
		if v.ignored(rel) {
			return nil
		}
		docs = append(docs, models.DocumentInfo{Path: rel, ModifiedAt: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	return docs, nil
}

// Stat returns the identity and current stamp of one document, or ErrNotFound
// if the path is missing, not markdown, or ignored.
func (v *FSVault) Stat(ctx context.Context, path string) (models.DocumentInfo, error) {
	rel, abs, err := v.resolve(path)
	if err != nil {
		return models.DocumentInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return models.DocumentInfo{}, ErrNotFound
	}
	return models.DocumentInfo{Path: rel, ModifiedAt: info.ModTime().UnixNano()}, nil
}

// Read returns a document's full text.
func (v *FSVault) Read(ctx context.Context, path string) (string, error) {
	_, abs, err := v.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

// Links parses the whole vault's link syntax and returns the outgoing and
// incoming reference sets for path.
func (v *FSVault) Links(ctx context.Context, path string) (map[string]bool, map[string]bool, error) {
	rel, _, err := v.resolve(path)
	if err != nil {
		return nil, nil, err
	}
	docs, err := v.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	resolver := newLinkResolver(docs)

	outgoing := make(map[string]bool)
	incoming := make(map[string]bool)
	for _, doc := range docs {
		text, readErr := v.Read(ctx, doc.Path)
		if readErr != nil {
			continue
		}
		for _, target := range parseLinkTargets(text) {
			to, ok := resolver.resolve(target, doc.Path)
			if !ok {
				continue
			}
			if doc.Path == rel && to != rel {
				outgoing[to] = true
			}
			if to == rel && doc.Path != rel {
				incoming[doc.Path] = true
			}
		}
	}
	return outgoing, incoming, nil
}

// resolve normalizes path to a vault-relative identity and its absolute
// location, rejecting ignored and out-of-root paths.
func (v *FSVault) resolve(path string) (rel string, abs string, err error) {
	rel = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
	if filepath.IsAbs(path) {
		rel = v.relPath(path)
	}
	if rel == "" || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", ErrNotFound
	}
	if filepath.Ext(rel) != markdownExt || v.ignored(rel) {
		return "", "", ErrNotFound
	}
	return rel, filepath.Join(v.root, filepath.FromSlash(rel)), nil
}

func (v *FSVault) relPath(abs string) string {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

func (v *FSVault) ignored(rel string) bool {
	for _, prefix := range v.ignorePrefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

// Package project exposes a pathology project's object model through
// collection-style wrappers: image entries with metadata and properties,
// derived pixel information and annotation hierarchies. All operations
// delegate to the host application's stores.
package project

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	ErrUnsupportedScheme = errors.New("only file URIs are supported")
	ErrRelativePath      = errors.New("an absolute path is required")
	ErrNoServerURI       = errors.New("entry has no server URI")
	ErrMultipleURIs      = errors.New("entries with multiple server URIs are unsupported")
)

// ImageProvider maps image ids to URIs and URIs to image ids.
type ImageProvider interface {
	// URI returns the URI for an image id.
	URI(id string) (string, error)
	// ID returns the image id for a URI.
	ID(uri string) (string, error)
	// Rebase maps the given URIs through the uri-to-uri table, returning ""
	// for URIs without a replacement.
	Rebase(uris []string, mapping map[string]string) ([]string, error)
}

// windowsDrivePattern matches the path component of a file URI that encodes
// a windows drive path, e.g. file:///C:/images/slide.svs.
var windowsDrivePattern = regexp.MustCompile(`^/[A-Za-z]:/`)

// PathFromURI parses a URI representing a file system path into the path.
// Windows drive paths are returned drive-rooted with forward slashes.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("not a valid uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w, got %q", ErrUnsupportedScheme, uri)
	}
	if u.Path == "" {
		return "", fmt.Errorf("uri %q has no path", uri)
	}
	if windowsDrivePattern.MatchString(u.Path) {
		return u.Path[1:], nil
	}
	return u.Path, nil
}

// URIFromPath converts an absolute file system path into a file URI. Both
// POSIX paths and windows drive paths (with forward or backward slashes)
// are accepted.
func URIFromPath(filePath string) (string, error) {
	if isWindowsDrivePath(filePath) {
		normalized := strings.ReplaceAll(filePath, `\`, "/")
		return (&url.URL{Scheme: "file", Path: "/" + normalized}).String(), nil
	}
	if strings.HasPrefix(filePath, "/") {
		return (&url.URL{Scheme: "file", Path: filePath}).String(), nil
	}
	return "", fmt.Errorf("%w, got %q", ErrRelativePath, filePath)
}

func isWindowsDrivePath(filePath string) bool {
	if len(filePath) < 3 {
		return false
	}
	drive := filePath[0]
	if !(('A' <= drive && drive <= 'Z') || ('a' <= drive && drive <= 'z')) {
		return false
	}
	return filePath[1] == ':' && (filePath[2] == '/' || filePath[2] == '\\')
}

// EqualURIs reports whether two file URIs address the same path. The
// comparison uses the decoded paths, so encoding differences (e.g. an
// escaped comma) do not break identity. Non-file URIs cannot be compared.
func EqualURIs(a, b string) (bool, error) {
	pathA, err := PathFromURI(a)
	if err != nil {
		return false, err
	}
	pathB, err := PathFromURI(b)
	if err != nil {
		return false, err
	}
	return pathA == pathB, nil
}

// NormalizeURI re-encodes a file URI into its canonical form so that equal
// URIs have equal string representations.
func NormalizeURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("not a valid uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w, got %q", ErrUnsupportedScheme, uri)
	}
	if u.Path == "" {
		return "", fmt.Errorf("uri %q has no path", uri)
	}
	return (&url.URL{Scheme: "file", Path: u.Path}).String(), nil
}

// FilenameFromURI returns the file name component of a file URI.
func FilenameFromURI(uri string) (string, error) {
	p, err := PathFromURI(uri)
	if err != nil {
		return "", err
	}
	return path.Base(p), nil
}

// SimpleURIProvider uses the image's normalized file URI as its id.
type SimpleURIProvider struct{}

func (SimpleURIProvider) URI(id string) (string, error) {
	return id, nil
}

func (SimpleURIProvider) ID(uri string) (string, error) {
	return NormalizeURI(uri)
}

// Rebase normalizes the mapping keys first, so equivalent encodings of the
// same URI match.
func (SimpleURIProvider) Rebase(uris []string, mapping map[string]string) ([]string, error) {
	normalized := make(map[string]string, len(mapping))
	for from, to := range mapping {
		key, err := NormalizeURI(from)
		if err != nil {
			return nil, fmt.Errorf("invalid rebase source: %w", err)
		}
		normalized[key] = to
	}

	rebased := make([]string, len(uris))
	for i, uri := range uris {
		key, err := NormalizeURI(uri)
		if err != nil {
			return nil, err
		}
		rebased[i] = normalized[key]
	}
	return rebased, nil
}

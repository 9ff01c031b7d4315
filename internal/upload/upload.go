// Package upload defines the file handed to the analysis engine by the
// upload collaborator and the checks it must pass before a run is created.
package upload

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/labstack/gommon/bytes"

	"github.com/tphakala/pugmark/internal/errors"
)

// Policy constrains accepted files.
type Policy struct {
	MaxSize    int64    // bytes, 0 means unlimited
	Extensions []string // lowercase with leading dot
}

// NewPolicy builds a Policy from a human size such as "10M" and an
// extension list.
func NewPolicy(maxSize string, extensions []string) (Policy, error) {
	size, err := bytes.Parse(maxSize)
	if err != nil {
		return Policy{}, errors.New(fmt.Errorf("invalid upload size limit %q: %w", maxSize, err)).
			Category(errors.CategoryConfiguration).
			Build()
	}

	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}

	return Policy{MaxSize: size, Extensions: exts}, nil
}

// File is a submitted image. The engine only reads Name and Size; the
// content is kept for display until Release is called.
type File struct {
	Name        string
	Size        int64
	ContentType string

	mu       sync.RWMutex
	content  []byte
	released bool
}

// New wraps in-memory content. Size is taken from len(content).
func New(name, contentType string, content []byte) *File {
	if contentType == "" && len(content) > 0 {
		contentType = http.DetectContentType(content)
	}
	return &File{
		Name:        name,
		Size:        int64(len(content)),
		ContentType: contentType,
		content:     content,
	}
}

// Read consumes r into a File, refusing content larger than the policy allows.
func Read(name, contentType string, r io.Reader, policy Policy) (*File, error) {
	if policy.MaxSize > 0 {
		r = io.LimitReader(r, policy.MaxSize+1)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(fmt.Errorf("read upload: %w", err)).
			Category(errors.CategoryFileIO).
			FileContext(name, -1).
			Build()
	}

	f := New(name, contentType, content)
	if err := f.Validate(policy); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the file against policy. Rejected files never start a run.
func (f *File) Validate(policy Policy) error {
	var reason string
	switch {
	case strings.TrimSpace(f.Name) == "":
		reason = "file name is empty"
	case f.Size < 0:
		reason = "file size is negative"
	case policy.MaxSize > 0 && f.Size > policy.MaxSize:
		reason = fmt.Sprintf("file exceeds maximum size of %s", bytes.Format(policy.MaxSize))
	case len(policy.Extensions) > 0 && !slices.Contains(policy.Extensions, f.Extension()):
		reason = fmt.Sprintf("file type %q is not an accepted image type", f.Extension())
	default:
		return nil
	}

	return errors.Newf("invalid upload: %s", reason).
		Category(errors.CategoryValidation).
		FileContext(f.Name, f.Size).
		Build()
}

// Extension returns the lowercase extension including the dot.
func (f *File) Extension() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Content returns the file bytes, or nil once released.
func (f *File) Content() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.content
}

// Release drops the content so discarded runs do not accumulate memory.
// It is safe to call more than once.
func (f *File) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = nil
	f.released = true
}

// Released reports whether Release has been called.
func (f *File) Released() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.released
}

// Package archive builds and stores the browsable index of recorded streams
package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"vthell-api/pkg/models"
)

const (
	// RootID and RootName identify the synthetic root folder
	RootID   = "vthell"
	RootName = "VTuberHell"

	idPrefixLen = 4
	idSuffixLen = 8
)

// ErrMalformedInput is wrapped by every MalformedEntryError
var ErrMalformedInput = errors.New("malformed feed entry")

// MalformedEntryError reports the entry that aborted a build
type MalformedEntryError struct {
	Path   string
	Reason string
}

// Error implements the error interface for MalformedEntryError
func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed feed entry %q: %s", e.Path, e.Reason)
}

// Unwrap lets callers match ErrMalformedInput
func (e *MalformedEntryError) Unwrap() error {
	return ErrMalformedInput
}

// Builder turns a sorted flat listing into a folder tree
type Builder struct {
	// Suffix returns a random string appended to node ids. Defaults to UUID hex.
	Suffix   func() string
	validate *validator.Validate
}

// NewBuilder creates a tree builder
func NewBuilder() *Builder {
	return &Builder{
		Suffix:   randomSuffix,
		validate: validator.New(),
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]
}

// build holds the state of a single Build call
type build struct {
	*Builder
	root  *models.Node
	total int64
	ids   map[string]struct{}
}

// Build converts entries, already sorted by path, into a tree rooted at the
// synthetic root folder and returns it with the summed size of all files.
// Any malformed entry aborts the whole build.
func (b *Builder) Build(entries []models.Entry) (*models.Node, int64, error) {
	root := models.NewFolder(RootID, RootName)
	root.Toggled = true

	st := &build{
		Builder: b,
		root:    root,
		ids:     map[string]struct{}{RootID: {}},
	}
	for i := range entries {
		if err := st.add(&entries[i]); err != nil {
			return nil, 0, err
		}
	}
	return root, st.total, nil
}

func (st *build) add(entry *models.Entry) error {
	if err := st.validate.Struct(entry); err != nil {
		return &MalformedEntryError{Path: entry.Path, Reason: err.Error()}
	}

	segments := strings.Split(entry.Path, "/")
	for _, s := range segments {
		if s == "" {
			return &MalformedEntryError{Path: entry.Path, Reason: "empty path segment"}
		}
	}

	// A directory entry with a single segment is a category root
	if entry.IsDir && len(segments) == 1 {
		folder, err := st.folder(st.root, segments[0], entry)
		if err != nil {
			return err
		}
		folder.Toggled = true
		return nil
	}

	parents, leaf := segments[:len(segments)-1], segments[len(segments)-1]

	// Intermediate folders are created on demand, so children listed before
	// their directory entry still land in the right place
	current := st.root
	for _, name := range parents {
		next, err := st.folder(current, name, entry)
		if err != nil {
			return err
		}
		current = next
	}

	if entry.IsDir {
		_, err := st.folder(current, leaf, entry)
		return err
	}

	if entry.Size < 0 {
		return &MalformedEntryError{Path: entry.Path, Reason: fmt.Sprintf("negative size %d", entry.Size)}
	}
	modtime, err := parseModTime(entry.ModTime)
	if err != nil {
		return &MalformedEntryError{Path: entry.Path, Reason: err.Error()}
	}

	file := models.NewFile(st.nodeID(entry.ID), leaf, entry.Size, entry.MimeType, modtime)
	if !current.AddChild(file) {
		return &MalformedEntryError{Path: entry.Path, Reason: "duplicate path"}
	}
	st.total += entry.Size
	return nil
}

// folder returns the child folder called name, creating it when missing
func (st *build) folder(parent *models.Node, name string, entry *models.Entry) (*models.Node, error) {
	if existing := parent.Child(name); existing != nil {
		if !existing.IsFolder() {
			return nil, &MalformedEntryError{Path: entry.Path, Reason: fmt.Sprintf("%q is both a file and a folder", name)}
		}
		return existing, nil
	}

	folder := models.NewFolder(st.nodeID(entry.ID), name)
	parent.AddChild(folder)
	return folder, nil
}

// nodeID derives a tree-unique id from the source id
func (st *build) nodeID(sourceID string) string {
	prefix := sourceID
	if len(prefix) > idPrefixLen {
		prefix = prefix[:idPrefixLen]
	}
	for {
		id := prefix + st.Suffix()
		if _, taken := st.ids[id]; !taken {
			st.ids[id] = struct{}{}
			return id
		}
	}
}

// parseModTime reads an RFC 3339 timestamp and rounds it to whole seconds
func parseModTime(raw string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid modification time %q: %w", raw, err)
	}
	return t.Round(time.Second).Unix(), nil
}

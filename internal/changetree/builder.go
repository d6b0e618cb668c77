package changetree

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/temirov/chtree/internal/types"
)

const (
	pathSeparator    = "/"
	currentDirectory = "."
	upwardSegment    = ".."
)

// Options adjusts how a tree is built.
type Options struct {
	// IncludeRootChanges attaches files that sit directly in the repository
	// root to the root node. When false they are dropped.
	IncludeRootChanges bool
}

// locatedRecord is a change record together with its split parent directory.
type locatedRecord struct {
	record         types.ChangeFileRecord
	parentSegments []string
	parentKey      string
}

// Build converts flat change records into a folder tree and returns its root.
// Records without a parent directory are left out of the tree.
func Build(records []types.ChangeFileRecord) *Node {
	return BuildWithOptions(records, Options{})
}

// BuildWithOptions is Build with explicit options.
func BuildWithOptions(records []types.ChangeFileRecord, options Options) *Node {
	root := newNode("")
	if len(records) == 0 {
		return root
	}

	var located []locatedRecord
	for _, record := range records {
		segments := SplitPath(record.Path)
		if len(segments) == 0 {
			continue
		}
		parentSegments := segments[:len(segments)-1]
		if len(parentSegments) == 0 {
			if options.IncludeRootChanges {
				root.directChanges = append(root.directChanges, record)
			}
			continue
		}
		located = append(located, locatedRecord{
			record:         record,
			parentSegments: parentSegments,
			parentKey:      foldName(strings.Join(parentSegments, pathSeparator)),
		})
	}

	recordsByParent := lo.GroupBy(located, func(item locatedRecord) string {
		return item.parentKey
	})
	distinctParents := lo.UniqBy(located, func(item locatedRecord) string {
		return item.parentKey
	})

	for _, parent := range distinctParents {
		folder := root
		for segmentIndex := 0; segmentIndex < len(parent.parentSegments); segmentIndex++ {
			folder = folder.childOrCreate(parent.parentSegments[segmentIndex])
		}
		if folder.assigned {
			continue
		}
		folder.directChanges = lo.Map(recordsByParent[parent.parentKey], func(item locatedRecord, _ int) types.ChangeFileRecord {
			return item.record
		})
		folder.assigned = true
	}

	return root
}

// SplitPath normalizes a repository-relative path and returns its segments.
// Both "/" and the platform separator are accepted. Empty and "." segments are dropped.
// A path that escapes the repository root through ".." yields no segments.
func SplitPath(changePath string) []string {
	trimmed := strings.TrimSpace(changePath)
	if trimmed == "" {
		return nil
	}
	cleaned := path.Clean(filepath.ToSlash(trimmed))
	if cleaned == upwardSegment || strings.HasPrefix(cleaned, upwardSegment+pathSeparator) {
		return nil
	}
	var segments []string
	for _, segment := range strings.Split(cleaned, pathSeparator) {
		if segment == "" || segment == currentDirectory {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// ParentDirectory returns the slash-joined parent directory of a change path,
// or an empty string for files at the repository root.
func ParentDirectory(changePath string) string {
	segments := SplitPath(changePath)
	if len(segments) < 2 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], pathSeparator)
}

// FileName returns the final segment of a change path.
func FileName(changePath string) string {
	segments := SplitPath(changePath)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

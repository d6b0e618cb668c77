package changetree

import (
	"errors"

	"github.com/samber/lo"

	"github.com/temirov/chtree/internal/types"
)

// VisitKind tells a visitor what kind of entry it is looking at.
type VisitKind int

const (
	VisitFolder VisitKind = iota
	VisitChange
)

// Visit describes a single step of a depth-first walk.
type Visit struct {
	Kind VisitKind
	// Depth is 0 for the root folder and its direct changes.
	Depth int
	// FolderPath is the slash-joined full path of the folder being visited,
	// or of the folder that owns the change.
	FolderPath string
	Folder     *Node
	Change     types.ChangeFileRecord
}

// VisitFunc is called for every folder and change. Returning SkipFolder from a
// folder visit skips its subfolders and changes; any other error stops the walk.
type VisitFunc func(visit Visit) error

// SkipFolder is returned by a VisitFunc to skip the contents of a folder.
var SkipFolder = errors.New("skip this folder")

// Walk traverses the tree depth-first: each folder is visited first, then its
// subfolders in stored order, then its direct changes.
func Walk(root *Node, visitFunc VisitFunc) error {
	if root == nil {
		return nil
	}
	return walkFolder(root, 0, "", visitFunc)
}

func walkFolder(folder *Node, depth int, folderPath string, visitFunc VisitFunc) error {
	folderError := visitFunc(Visit{Kind: VisitFolder, Depth: depth, FolderPath: folderPath, Folder: folder})
	if errors.Is(folderError, SkipFolder) {
		return nil
	}
	if folderError != nil {
		return folderError
	}
	for _, child := range folder.children {
		if childError := walkFolder(child, depth+1, joinFolderPath(folderPath, child.name), visitFunc); childError != nil {
			return childError
		}
	}
	for _, change := range folder.directChanges {
		if changeError := visitFunc(Visit{Kind: VisitChange, Depth: depth, FolderPath: folderPath, Folder: folder, Change: change}); changeError != nil {
			return changeError
		}
	}
	return nil
}

func joinFolderPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + pathSeparator + name
}

// Summarize counts changes by status together with the folder count and depth.
func Summarize(root *Node) types.ChangeSummary {
	var summary types.ChangeSummary
	if root == nil {
		return summary
	}
	var changes []types.ChangeFileRecord
	_ = Walk(root, func(visit Visit) error {
		if visit.Kind == VisitChange {
			changes = append(changes, visit.Change)
		}
		return nil
	})
	summary.Added = lo.CountBy(changes, func(change types.ChangeFileRecord) bool { return change.Status == types.StatusAdded })
	summary.Modified = lo.CountBy(changes, func(change types.ChangeFileRecord) bool { return change.Status == types.StatusModified })
	summary.Deleted = lo.CountBy(changes, func(change types.ChangeFileRecord) bool { return change.Status == types.StatusDeleted })
	summary.Folders = root.CountFolders()
	summary.Depth = root.Depth()
	return summary
}

package changetree

import (
	"errors"
	"fmt"
)

// ErrStructuralInconsistency marks a tree that breaks its own invariants.
// A tree produced by Build never does; seeing it means a bug.
var ErrStructuralInconsistency = errors.New("structural inconsistency")

const (
	errorNodeRevisitedFormat    = "%w: folder %q reachable more than once"
	errorDuplicatePathFormat    = "%w: folder path %q appears more than once"
	errorDuplicateSiblingFormat = "%w: folder %q has duplicate children named %q"
	errorIndexMismatchFormat    = "%w: folder %q child index does not match children"
	errorMisplacedChangeFormat  = "%w: change %q assigned to folder %q"
)

// Verify checks the invariants of a change tree rooted at root.
func Verify(root *Node) error {
	if root == nil {
		return nil
	}
	visitedNodes := map[*Node]struct{}{}
	visitedPaths := map[string]struct{}{}
	return Walk(root, func(visit Visit) error {
		folder := visit.Folder
		folderKey := foldName(visit.FolderPath)
		switch visit.Kind {
		case VisitFolder:
			if _, seen := visitedNodes[folder]; seen {
				return fmt.Errorf(errorNodeRevisitedFormat, ErrStructuralInconsistency, visit.FolderPath)
			}
			visitedNodes[folder] = struct{}{}
			if _, seen := visitedPaths[folderKey]; seen {
				return fmt.Errorf(errorDuplicatePathFormat, ErrStructuralInconsistency, visit.FolderPath)
			}
			visitedPaths[folderKey] = struct{}{}
			return verifySiblings(folder, visit.FolderPath)
		case VisitChange:
			parentKey := foldName(ParentDirectory(visit.Change.Path))
			if parentKey != folderKey {
				return fmt.Errorf(errorMisplacedChangeFormat, ErrStructuralInconsistency, visit.Change.Path, visit.FolderPath)
			}
		}
		return nil
	})
}

func verifySiblings(folder *Node, folderPath string) error {
	seenNames := make(map[string]struct{}, len(folder.children))
	for _, child := range folder.children {
		key := foldName(child.name)
		if _, duplicate := seenNames[key]; duplicate {
			return fmt.Errorf(errorDuplicateSiblingFormat, ErrStructuralInconsistency, folderPath, child.name)
		}
		seenNames[key] = struct{}{}
		if indexed, found := folder.childIndex[key]; !found || indexed != child {
			return fmt.Errorf(errorIndexMismatchFormat, ErrStructuralInconsistency, folderPath)
		}
	}
	if len(folder.childIndex) != len(folder.children) {
		return fmt.Errorf(errorIndexMismatchFormat, ErrStructuralInconsistency, folderPath)
	}
	return nil
}

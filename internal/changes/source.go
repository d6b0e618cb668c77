// Package changes collects flat change records from version control or from files.
package changes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/chtree/internal/types"
	"github.com/temirov/chtree/internal/utils"
)

var (
	// ErrNotRepository is returned when a root is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown change backend")
)

const (
	errorUnknownBackendFormat = "%w %q"
	errorRepositoryFormat     = "%w: %s"
	errorStatusFormat         = "collect status for %s: %w"
)

// Source produces the change records of the repository rooted at root.
type Source interface {
	Collect(ctx context.Context, root string) ([]types.ChangeFileRecord, error)
}

// SourceForBackend returns the Source registered under the backend name.
func SourceForBackend(backend string, logger *zap.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", types.BackendGit:
		return NewGitCommandSource(NewExecRunner(""), logger), nil
	case types.BackendGoGit:
		return NewGoGitSource(logger), nil
	default:
		return nil, fmt.Errorf(errorUnknownBackendFormat, ErrUnknownBackend, backend)
	}
}

// requireRepository fails with ErrNotRepository unless root or one of its
// parents holds a .git entry.
func requireRepository(root string) error {
	if _, findError := utils.FindRepositoryRoot(root); findError != nil {
		return fmt.Errorf(errorRepositoryFormat, ErrNotRepository, root)
	}
	return nil
}

func sortRecordsByPath(records []types.ChangeFileRecord) {
	sort.SliceStable(records, func(left, right int) bool {
		return records[left].Path < records[right].Path
	})
}

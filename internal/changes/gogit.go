package changes

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/temirov/chtree/internal/types"
)

const (
	errorOpenRepositoryFormat = "open repository %s: %w"
	errorWorktreeFormat       = "open worktree %s: %w"
	skippedStatusMessage      = "skipping unmodified or ignored entry"
)

// GoGitSource reads changes through go-git without a git binary.
type GoGitSource struct {
	logger *zap.Logger
}

// NewGoGitSource constructs a GoGitSource.
func NewGoGitSource(logger *zap.Logger) *GoGitSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoGitSource{logger: logger}
}

// Collect implements Source. Records are sorted by path since go-git reports a map.
func (source *GoGitSource) Collect(ctx context.Context, root string) ([]types.ChangeFileRecord, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	repository, openError := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(openError, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf(errorRepositoryFormat, ErrNotRepository, root)
	}
	if openError != nil {
		return nil, fmt.Errorf(errorOpenRepositoryFormat, root, openError)
	}
	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(errorWorktreeFormat, root, worktreeError)
	}
	status, statusError := worktree.Status()
	if statusError != nil {
		return nil, fmt.Errorf(errorStatusFormat, root, statusError)
	}

	records := make([]types.ChangeFileRecord, 0, len(status))
	for changePath, fileStatus := range status {
		changeStatus, recognized := statusFromCodes(byte(fileStatus.Staging), byte(fileStatus.Worktree))
		if !recognized {
			source.logger.Debug(skippedStatusMessage, zap.String("path", changePath))
			continue
		}
		records = append(records, types.ChangeFileRecord{Path: changePath, Status: changeStatus})
		if fileStatus.Staging == git.Renamed && fileStatus.Extra != "" {
			records = append(records, types.ChangeFileRecord{Path: fileStatus.Extra, Status: types.StatusDeleted})
		}
	}
	sortRecordsByPath(records)
	return records, nil
}

var _ Source = (*GoGitSource)(nil)

package changes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/chtree/internal/types"
)

const (
	porcelainEntrySeparator = "\x00"
	porcelainMinimumLength  = 4
	untrackedCode           = '?'
	ignoredCode             = '!'
	blankCode               = ' '

	droppedPorcelainEntryMessage = "dropping unrecognized status entry"
	errorPorcelainRenameFormat   = "status entry %q is missing its source path"
)

var porcelainStatusArguments = []string{"status", "--porcelain=v1", "-z", "--untracked-files=all"}

// GitCommandSource reads changes from `git status --porcelain -z`.
type GitCommandSource struct {
	runner Runner
	logger *zap.Logger
}

// NewGitCommandSource constructs a GitCommandSource over runner.
func NewGitCommandSource(runner Runner, logger *zap.Logger) *GitCommandSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitCommandSource{runner: runner, logger: logger}
}

// Collect implements Source.
func (source *GitCommandSource) Collect(ctx context.Context, root string) ([]types.ChangeFileRecord, error) {
	if repositoryError := requireRepository(root); repositoryError != nil {
		return nil, repositoryError
	}
	output, runError := source.runner.Run(ctx, root, porcelainStatusArguments...)
	if runError != nil {
		return nil, fmt.Errorf(errorStatusFormat, root, runError)
	}
	return ParsePorcelain(output, source.logger)
}

// ParsePorcelain converts NUL-separated porcelain v1 status output to records.
// Renames and copies list the destination first and the source in the next entry.
func ParsePorcelain(output string, logger *zap.Logger) ([]types.ChangeFileRecord, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries := strings.Split(output, porcelainEntrySeparator)
	var records []types.ChangeFileRecord
	for entryIndex := 0; entryIndex < len(entries); entryIndex++ {
		entry := entries[entryIndex]
		if entry == "" {
			continue
		}
		if len(entry) < porcelainMinimumLength {
			logger.Debug(droppedPorcelainEntryMessage, zap.String("entry", entry))
			continue
		}
		stagedCode, worktreeCode, changePath := entry[0], entry[1], entry[3:]
		status, recognized := statusFromCodes(stagedCode, worktreeCode)
		if !recognized {
			logger.Debug(droppedPorcelainEntryMessage, zap.String("entry", entry))
			continue
		}
		records = append(records, types.ChangeFileRecord{Path: changePath, Status: status})
		if isRenameOrCopy(stagedCode) || isRenameOrCopy(worktreeCode) {
			entryIndex++
			if entryIndex >= len(entries) || entries[entryIndex] == "" {
				return nil, fmt.Errorf(errorPorcelainRenameFormat, entry)
			}
			if stagedCode == 'R' || worktreeCode == 'R' {
				records = append(records, types.ChangeFileRecord{Path: entries[entryIndex], Status: types.StatusDeleted})
			}
		}
	}
	return records, nil
}

// statusFromCodes maps the two porcelain columns to a status. The staged
// column wins unless it is blank.
func statusFromCodes(stagedCode, worktreeCode byte) (types.ChangeStatus, bool) {
	if stagedCode == untrackedCode && worktreeCode == untrackedCode {
		return types.StatusAdded, true
	}
	if stagedCode == ignoredCode {
		return 0, false
	}
	code := stagedCode
	if code == blankCode {
		code = worktreeCode
	}
	switch code {
	case 'A', 'R', 'C':
		return types.StatusAdded, true
	case 'M', 'T', 'U':
		return types.StatusModified, true
	case 'D':
		return types.StatusDeleted, true
	default:
		return 0, false
	}
}

func isRenameOrCopy(code byte) bool {
	return code == 'R' || code == 'C'
}

var _ Source = (*GitCommandSource)(nil)

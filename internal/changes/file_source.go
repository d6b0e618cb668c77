package changes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/chtree/internal/types"
)

const (
	// StandardInputPath selects standard input as the records file.
	StandardInputPath = "-"

	jsonExtension     = ".json"
	yamlExtension     = ".yaml"
	ymlExtension      = ".yml"
	jsonArrayOpening  = "["
	jsonObjectOpening = "{"

	errorReadRecordsFormat   = "read records from %s: %w"
	errorDecodeRecordsFormat = "decode %s records from %s: %w"
)

// FileSource reads change records from a JSON or YAML document instead of a repository.
type FileSource struct {
	Path  string
	Stdin io.Reader
}

// NewFileSource constructs a FileSource. A path of "-" reads standard input.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, Stdin: os.Stdin}
}

// Collect implements Source. The root argument is ignored.
func (source *FileSource) Collect(ctx context.Context, _ string) ([]types.ChangeFileRecord, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	var data []byte
	var readError error
	if source.Path == StandardInputPath {
		data, readError = io.ReadAll(source.Stdin)
	} else {
		data, readError = os.ReadFile(source.Path)
	}
	if readError != nil {
		return nil, fmt.Errorf(errorReadRecordsFormat, source.Path, readError)
	}
	format := detectRecordsFormat(source.Path, data)
	records, decodeError := DecodeRecords(data, format)
	if decodeError != nil {
		return nil, fmt.Errorf(errorDecodeRecordsFormat, format, source.Path, decodeError)
	}
	return records, nil
}

// DecodeRecords decodes a list of records encoded as JSON or YAML.
func DecodeRecords(data []byte, format string) ([]types.ChangeFileRecord, error) {
	var records []types.ChangeFileRecord
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	var decodeError error
	if format == types.FormatJSON {
		decodeError = json.Unmarshal(data, &records)
	} else {
		decodeError = yaml.Unmarshal(data, &records)
	}
	if decodeError != nil {
		return nil, decodeError
	}
	return records, nil
}

func detectRecordsFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case jsonExtension:
		return types.FormatJSON
	case yamlExtension, ymlExtension:
		return types.FormatYAML
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, jsonArrayOpening) || strings.HasPrefix(trimmed, jsonObjectOpening) {
		return types.FormatJSON
	}
	return types.FormatYAML
}

var _ Source = (*FileSource)(nil)

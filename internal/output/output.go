// Package output renders change trees as raw text, JSON, XML or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/TwiN/go-color"
	"gopkg.in/yaml.v3"

	"github.com/temirov/chtree/internal/changetree"
	"github.com/temirov/chtree/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlHeader      = xml.Header
	xmlRootElement = "result"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	treeHeadlineFormat = "--- Changes: %s ---\n"
	folderLineFormat   = "%s%s/\n"
	changeLineFormat   = "%s%s (%s)\n"
	noChangesLine      = "(no changes)"
	summaryLineFormat  = "Summary: %d %s (%d added, %d modified, %d deleted) in %d %s, depth %d"

	yamlIndent = 2
)

// ErrUnsupportedFormat is returned for formats other than raw, json, xml and yaml.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// RenderOptions controls the raw renderer.
type RenderOptions struct {
	Color bool
}

// IsSupportedFormat reports whether Render understands format.
func IsSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML, types.FormatYAML:
		return true
	default:
		return false
	}
}

// NewChangeTreeOutput converts a built tree into its serializable form.
func NewChangeTreeOutput(rootLabel string, root *changetree.Node, includeSummary bool) types.ChangeTreeOutput {
	result := types.ChangeTreeOutput{Root: rootLabel, Tree: convertFolder(root, "")}
	if includeSummary {
		summary := changetree.Summarize(root)
		result.Summary = &summary
	}
	return result
}

func convertFolder(folder *changetree.Node, folderPath string) *types.FolderOutputNode {
	if folder == nil {
		return &types.FolderOutputNode{}
	}
	converted := &types.FolderOutputNode{Name: folder.Name(), Path: folderPath}
	for _, child := range folder.Children() {
		childPath := child.Name()
		if folderPath != "" {
			childPath = folderPath + "/" + child.Name()
		}
		converted.Folders = append(converted.Folders, convertFolder(child, childPath))
	}
	for _, change := range folder.DirectChanges() {
		converted.Changes = append(converted.Changes, types.ChangeOutputEntry{
			Name:   changetree.FileName(change.Path),
			Path:   change.Path,
			Status: change.Status,
		})
	}
	return converted
}

// Render renders trees in the requested format.
func Render(format string, trees []types.ChangeTreeOutput, options RenderOptions) (string, error) {
	switch format {
	case types.FormatRaw:
		return RenderRaw(trees, options), nil
	case types.FormatJSON:
		return RenderJSON(trees)
	case types.FormatXML:
		return RenderXML(trees)
	case types.FormatYAML:
		return RenderYAML(trees)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// RenderJSON marshals the trees as an indented JSON array.
func RenderJSON(trees []types.ChangeTreeOutput) (string, error) {
	if len(trees) == 0 {
		return "[]", nil
	}
	encoded, jsonEncodeError := json.MarshalIndent(trees, indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}

// RenderXML marshals the trees as an XML document.
func RenderXML(trees []types.ChangeTreeOutput) (string, error) {
	wrapper := struct {
		XMLName xml.Name                 `xml:""`
		Trees   []types.ChangeTreeOutput `xml:"tree"`
	}{
		XMLName: xml.Name{Local: xmlRootElement},
		Trees:   trees,
	}
	encoded, xmlMarshalError := xml.MarshalIndent(wrapper, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xmlHeader + string(encoded), nil
}

// RenderYAML marshals the trees as a YAML sequence.
func RenderYAML(trees []types.ChangeTreeOutput) (string, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndent)
	if encodeError := encoder.Encode(trees); encodeError != nil {
		return "", encodeError
	}
	if closeError := encoder.Close(); closeError != nil {
		return "", closeError
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

// RenderRaw prints each tree with box-drawing connectors: subfolders first,
// then the folder's own changes.
func RenderRaw(trees []types.ChangeTreeOutput, options RenderOptions) string {
	var buffer bytes.Buffer
	for treeIndex, tree := range trees {
		if treeIndex > 0 {
			buffer.WriteString("\n")
		}
		fmt.Fprintf(&buffer, treeHeadlineFormat, tree.Root)
		if tree.Tree == nil || (len(tree.Tree.Folders) == 0 && len(tree.Tree.Changes) == 0) {
			buffer.WriteString(noChangesLine + "\n")
		} else {
			renderFolderContents(&buffer, tree.Tree, "", options)
		}
		if tree.Summary != nil {
			buffer.WriteString(FormatSummaryLine(*tree.Summary) + "\n")
		}
	}
	return strings.TrimSuffix(buffer.String(), "\n")
}

func renderFolderContents(writer io.Writer, folder *types.FolderOutputNode, prefix string, options RenderOptions) {
	entryCount := len(folder.Folders) + len(folder.Changes)
	entryIndex := 0
	for _, child := range folder.Folders {
		entryIndex++
		linePrefix, childPrefix := treeLinePrefix(prefix, entryIndex == entryCount)
		fmt.Fprintf(writer, folderLineFormat, linePrefix, child.Name)
		renderFolderContents(writer, child, childPrefix, options)
	}
	for _, change := range folder.Changes {
		entryIndex++
		linePrefix, _ := treeLinePrefix(prefix, entryIndex == entryCount)
		fmt.Fprintf(writer, changeLineFormat, linePrefix, change.Name, statusLabel(change.Status, options.Color))
	}
}

func treeLinePrefix(prefix string, isLast bool) (string, string) {
	if isLast {
		return prefix + treeLastConnector, prefix + treeLastPadding
	}
	return prefix + treeBranchConnector, prefix + treeBranchPadding
}

func statusLabel(status types.ChangeStatus, colored bool) string {
	label := status.Label()
	if !colored {
		return label
	}
	switch status {
	case types.StatusAdded:
		return color.Ize(color.Green, label)
	case types.StatusModified:
		return color.Ize(color.Blue, label)
	case types.StatusDeleted:
		return color.Ize(color.Red, label)
	default:
		return label
	}
}

// FormatSummaryLine renders the summary of one tree on a single line.
func FormatSummaryLine(summary types.ChangeSummary) string {
	changeLabel := "changes"
	if summary.Total() == 1 {
		changeLabel = "change"
	}
	folderLabel := "folders"
	if summary.Folders == 1 {
		folderLabel = "folder"
	}
	return fmt.Sprintf(summaryLineFormat, summary.Total(), changeLabel, summary.Added, summary.Modified, summary.Deleted, summary.Folders, folderLabel, summary.Depth)
}

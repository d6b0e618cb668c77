// Package types defines every cross‑package data structure used by the chtree CLI.
package types

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	CommandTree = "tree"
	CommandInit = "init"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatYAML = "yaml"

	BackendGit   = "git"
	BackendGoGit = "go-git"
)

// ChangeStatus is the version-control status of a single changed file.
type ChangeStatus int

const (
	StatusAdded ChangeStatus = iota
	StatusModified
	StatusDeleted
)

const (
	statusAddedText    = "added"
	statusModifiedText = "modified"
	statusDeletedText  = "deleted"

	invalidStatusMessageFormat = "unknown change status %q"
)

// String returns the lower-case textual form of the status.
func (status ChangeStatus) String() string {
	switch status {
	case StatusAdded:
		return statusAddedText
	case StatusModified:
		return statusModifiedText
	case StatusDeleted:
		return statusDeletedText
	default:
		return fmt.Sprintf("status(%d)", int(status))
	}
}

// Label returns the capitalized form used in human-readable output.
func (status ChangeStatus) Label() string {
	text := status.String()
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

// ParseChangeStatus accepts the textual forms and the single-letter git codes.
func ParseChangeStatus(input string) (ChangeStatus, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case statusAddedText, "a":
		return StatusAdded, nil
	case statusModifiedText, "m":
		return StatusModified, nil
	case statusDeletedText, "d":
		return StatusDeleted, nil
	default:
		return 0, fmt.Errorf(invalidStatusMessageFormat, input)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (status ChangeStatus) MarshalText() ([]byte, error) {
	switch status {
	case StatusAdded, StatusModified, StatusDeleted:
		return []byte(status.String()), nil
	default:
		return nil, fmt.Errorf(invalidStatusMessageFormat, status.String())
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (status *ChangeStatus) UnmarshalText(data []byte) error {
	parsed, err := ParseChangeStatus(string(data))
	if err != nil {
		return err
	}
	*status = parsed
	return nil
}

// ChangeFileRecord is one changed file relative to a repository root.
type ChangeFileRecord struct {
	Path   string       `json:"path" xml:"path" yaml:"path"`
	Status ChangeStatus `json:"status" xml:"status" yaml:"status"`
}

// ValidatedPath is an absolute repository root that already passed the directory checks.
type ValidatedPath struct {
	AbsolutePath string
}

// ChangeOutputEntry is a direct change as rendered under its folder.
type ChangeOutputEntry struct {
	Name   string       `json:"name" xml:"name" yaml:"name"`
	Path   string       `json:"path" xml:"path" yaml:"path"`
	Status ChangeStatus `json:"status" xml:"status" yaml:"status"`
}

// FolderOutputNode is the serializable form of a folder of the change tree.
type FolderOutputNode struct {
	XMLName xml.Name            `json:"-" xml:"folder" yaml:"-"`
	Name    string              `json:"name" xml:"name,attr" yaml:"name"`
	Path    string              `json:"path,omitempty" xml:"path,attr,omitempty" yaml:"path,omitempty"`
	Folders []*FolderOutputNode `json:"folders,omitempty" xml:"folder,omitempty" yaml:"folders,omitempty"`
	Changes []ChangeOutputEntry `json:"changes,omitempty" xml:"change,omitempty" yaml:"changes,omitempty"`
}

// ChangeSummary captures aggregate information about one change tree.
type ChangeSummary struct {
	Added    int `json:"added" xml:"added" yaml:"added"`
	Modified int `json:"modified" xml:"modified" yaml:"modified"`
	Deleted  int `json:"deleted" xml:"deleted" yaml:"deleted"`
	Folders  int `json:"folders" xml:"folders" yaml:"folders"`
	Depth    int `json:"depth" xml:"depth" yaml:"depth"`
}

// Total returns the number of changes counted in the summary.
func (summary ChangeSummary) Total() int {
	return summary.Added + summary.Modified + summary.Deleted
}

// ChangeTreeOutput is the result of the tree command for one repository.
type ChangeTreeOutput struct {
	XMLName xml.Name          `json:"-" xml:"tree" yaml:"-"`
	Root    string            `json:"root" xml:"root,attr" yaml:"root"`
	Tree    *FolderOutputNode `json:"tree" xml:"folder" yaml:"tree"`
	Summary *ChangeSummary    `json:"summary,omitempty" xml:"summary,omitempty" yaml:"summary,omitempty"`
}

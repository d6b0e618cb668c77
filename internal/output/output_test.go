package output_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/temirov/chtree/internal/changetree"
	"github.com/temirov/chtree/internal/output"
	"github.com/temirov/chtree/internal/types"
)

const sampleRootLabel = "/work/repo"

var sampleRecords = []types.ChangeFileRecord{
	{Path: "src/a/file1.txt", Status: types.StatusModified},
	{Path: "src/a/file2.txt", Status: types.StatusAdded},
	{Path: "src/b/file3.txt", Status: types.StatusDeleted},
}

// rawExpected defines the expected raw rendering of the sample records.
const rawExpected = "--- Changes: /work/repo ---\n" +
	"└── src/\n" +
	"    ├── a/\n" +
	"    │   ├── file1.txt (Modified)\n" +
	"    │   └── file2.txt (Added)\n" +
	"    └── b/\n" +
	"        └── file3.txt (Deleted)\n" +
	"Summary: 3 changes (1 added, 1 modified, 1 deleted) in 3 folders, depth 2"

func sampleTrees(includeSummary bool) []types.ChangeTreeOutput {
	root := changetree.Build(sampleRecords)
	return []types.ChangeTreeOutput{output.NewChangeTreeOutput(sampleRootLabel, root, includeSummary)}
}

// TestRenderRaw verifies the raw tree layout.
func TestRenderRaw(testingInstance *testing.T) {
	actual := output.RenderRaw(sampleTrees(true), output.RenderOptions{})
	if actual != rawExpected {
		testingInstance.Errorf("unexpected output:\n%s", actual)
	}
}

func TestRenderRawMixedFolderAndChanges(testingInstance *testing.T) {
	root := changetree.BuildWithOptions([]types.ChangeFileRecord{
		{Path: "pkg/sub/inner.go", Status: types.StatusAdded},
		{Path: "pkg/outer.go", Status: types.StatusModified},
		{Path: "go.mod", Status: types.StatusModified},
	}, changetree.Options{IncludeRootChanges: true})
	trees := []types.ChangeTreeOutput{output.NewChangeTreeOutput("repo", root, false)}
	expected := "--- Changes: repo ---\n" +
		"├── pkg/\n" +
		"│   ├── sub/\n" +
		"│   │   └── inner.go (Added)\n" +
		"│   └── outer.go (Modified)\n" +
		"└── go.mod (Modified)"
	if actual := output.RenderRaw(trees, output.RenderOptions{}); actual != expected {
		testingInstance.Errorf("unexpected output:\n%s", actual)
	}
}

func TestRenderRawEmptyTree(testingInstance *testing.T) {
	trees := []types.ChangeTreeOutput{
		output.NewChangeTreeOutput("first", changetree.Build(nil), true),
		output.NewChangeTreeOutput("second", changetree.Build(nil), false),
	}
	expected := "--- Changes: first ---\n" +
		"(no changes)\n" +
		"Summary: 0 changes (0 added, 0 modified, 0 deleted) in 0 folders, depth 0\n" +
		"\n" +
		"--- Changes: second ---\n" +
		"(no changes)"
	if actual := output.RenderRaw(trees, output.RenderOptions{}); actual != expected {
		testingInstance.Errorf("unexpected output:\n%s", actual)
	}
}

func TestRenderRawColor(testingInstance *testing.T) {
	colored := output.RenderRaw(sampleTrees(false), output.RenderOptions{Color: true})
	plain := output.RenderRaw(sampleTrees(false), output.RenderOptions{})
	if !strings.Contains(plain, "file3.txt (Deleted)") {
		testingInstance.Fatalf("plain output missing status: %s", plain)
	}
	if !strings.Contains(colored, "Deleted") {
		testingInstance.Fatalf("colored output missing status: %s", colored)
	}
}

func TestRenderJSON(testingInstance *testing.T) {
	rendered, renderError := output.Render(types.FormatJSON, sampleTrees(true), output.RenderOptions{})
	if renderError != nil {
		testingInstance.Fatalf("render json error: %v", renderError)
	}
	var decoded []struct {
		Root string `json:"root"`
		Tree struct {
			Folders []struct {
				Name    string `json:"name"`
				Folders []struct {
					Name    string `json:"name"`
					Path    string `json:"path"`
					Changes []struct {
						Name   string `json:"name"`
						Status string `json:"status"`
					} `json:"changes"`
				} `json:"folders"`
			} `json:"folders"`
		} `json:"tree"`
		Summary types.ChangeSummary `json:"summary"`
	}
	if decodeError := json.Unmarshal([]byte(rendered), &decoded); decodeError != nil {
		testingInstance.Fatalf("decode: %v\n%s", decodeError, rendered)
	}
	if len(decoded) != 1 || decoded[0].Root != sampleRootLabel {
		testingInstance.Fatalf("unexpected trees: %+v", decoded)
	}
	folderA := decoded[0].Tree.Folders[0].Folders[0]
	if folderA.Path != "src/a" || len(folderA.Changes) != 2 || folderA.Changes[0].Status != "modified" {
		testingInstance.Fatalf("unexpected folder: %+v", folderA)
	}
	if decoded[0].Summary.Total() != 3 {
		testingInstance.Fatalf("unexpected summary: %+v", decoded[0].Summary)
	}

	empty, _ := output.RenderJSON(nil)
	if empty != "[]" {
		testingInstance.Fatalf("empty json %q", empty)
	}
}

func TestRenderXML(testingInstance *testing.T) {
	rendered, renderError := output.Render(types.FormatXML, sampleTrees(false), output.RenderOptions{})
	if renderError != nil {
		testingInstance.Fatalf("render xml error: %v", renderError)
	}
	for _, fragment := range []string{
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>",
		"<result>",
		"<tree root=\"/work/repo\">",
		"<folder name=\"a\" path=\"src/a\">",
		"<status>deleted</status>",
	} {
		if !strings.Contains(rendered, fragment) {
			testingInstance.Errorf("xml output missing %q:\n%s", fragment, rendered)
		}
	}
}

func TestRenderYAML(testingInstance *testing.T) {
	rendered, renderError := output.Render(types.FormatYAML, sampleTrees(true), output.RenderOptions{})
	if renderError != nil {
		testingInstance.Fatalf("render yaml error: %v", renderError)
	}
	var decoded []types.ChangeTreeOutput
	if decodeError := yaml.Unmarshal([]byte(rendered), &decoded); decodeError != nil {
		testingInstance.Fatalf("decode yaml: %v\n%s", decodeError, rendered)
	}
	if len(decoded) != 1 || decoded[0].Tree == nil || len(decoded[0].Tree.Folders) != 1 {
		testingInstance.Fatalf("unexpected yaml trees: %+v", decoded)
	}
	deleted := decoded[0].Tree.Folders[0].Folders[1].Changes[0]
	if deleted.Status != types.StatusDeleted || deleted.Name != "file3.txt" {
		testingInstance.Fatalf("unexpected change: %+v", deleted)
	}
}

func TestRenderUnsupportedFormat(testingInstance *testing.T) {
	if _, renderError := output.Render("toml", nil, output.RenderOptions{}); !errors.Is(renderError, output.ErrUnsupportedFormat) {
		testingInstance.Fatalf("expected ErrUnsupportedFormat, got %v", renderError)
	}
	if output.IsSupportedFormat("toml") || !output.IsSupportedFormat(types.FormatYAML) {
		testingInstance.Fatalf("unexpected format support")
	}
}

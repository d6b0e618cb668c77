package changetree_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/temirov/chtree/internal/changetree"
	"github.com/temirov/chtree/internal/types"
)

// folderShape is a comparable snapshot of a folder used for structural assertions.
type folderShape struct {
	Name     string
	Changes  []types.ChangeFileRecord
	Children []folderShape
}

func shapeOf(node *changetree.Node) folderShape {
	shape := folderShape{Name: node.Name(), Changes: node.DirectChanges()}
	for _, child := range node.Children() {
		shape.Children = append(shape.Children, shapeOf(child))
	}
	return shape
}

func record(path string, status types.ChangeStatus) types.ChangeFileRecord {
	return types.ChangeFileRecord{Path: path, Status: status}
}

func TestBuildScenarios(t *testing.T) {
	testCases := []struct {
		name     string
		records  []types.ChangeFileRecord
		expected folderShape
	}{
		{
			name:     "empty_input",
			records:  nil,
			expected: folderShape{},
		},
		{
			name: "two_folders_under_shared_prefix",
			records: []types.ChangeFileRecord{
				record("src/a/file1.txt", types.StatusModified),
				record("src/a/file2.txt", types.StatusAdded),
				record("src/b/file3.txt", types.StatusDeleted),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name: "src",
						Children: []folderShape{
							{
								Name: "a",
								Changes: []types.ChangeFileRecord{
									record("src/a/file1.txt", types.StatusModified),
									record("src/a/file2.txt", types.StatusAdded),
								},
							},
							{
								Name:    "b",
								Changes: []types.ChangeFileRecord{record("src/b/file3.txt", types.StatusDeleted)},
							},
						},
					},
				},
			},
		},
		{
			name:     "root_level_file_dropped",
			records:  []types.ChangeFileRecord{record("readme.md", types.StatusModified)},
			expected: folderShape{},
		},
		{
			name: "case_differing_segments_merge",
			records: []types.ChangeFileRecord{
				record("Src/a/f1.txt", types.StatusModified),
				record("src/A/f2.txt", types.StatusAdded),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name: "Src",
						Children: []folderShape{
							{
								Name: "a",
								Changes: []types.ChangeFileRecord{
									record("Src/a/f1.txt", types.StatusModified),
									record("src/A/f2.txt", types.StatusAdded),
								},
							},
						},
					},
				},
			},
		},
		{
			name: "unicode_case_folding_merges",
			records: []types.ChangeFileRecord{
				record("ſrc/a.txt", types.StatusModified),
				record("SRC/b.txt", types.StatusAdded),
				record("\u212Aeys/k1.pem", types.StatusAdded),
				record("keys/k2.pem", types.StatusDeleted),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name: "ſrc",
						Changes: []types.ChangeFileRecord{
							record("ſrc/a.txt", types.StatusModified),
							record("SRC/b.txt", types.StatusAdded),
						},
					},
					{
						Name: "\u212Aeys",
						Changes: []types.ChangeFileRecord{
							record("\u212Aeys/k1.pem", types.StatusAdded),
							record("keys/k2.pem", types.StatusDeleted),
						},
					},
				},
			},
		},
		{
			name: "paths_escaping_root_excluded",
			records: []types.ChangeFileRecord{
				record("../x/y.txt", types.StatusAdded),
				record("..", types.StatusAdded),
				record("a/../../b/c.txt", types.StatusModified),
				record("a/../b/d.txt", types.StatusDeleted),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name:    "b",
						Changes: []types.ChangeFileRecord{record("a/../b/d.txt", types.StatusDeleted)},
					},
				},
			},
		},
		{
			name: "internal_folder_with_changes_and_children",
			records: []types.ChangeFileRecord{
				record("pkg/sub/inner.go", types.StatusAdded),
				record("pkg/outer.go", types.StatusModified),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name:    "pkg",
						Changes: []types.ChangeFileRecord{record("pkg/outer.go", types.StatusModified)},
						Children: []folderShape{
							{
								Name:    "sub",
								Changes: []types.ChangeFileRecord{record("pkg/sub/inner.go", types.StatusAdded)},
							},
						},
					},
				},
			},
		},
		{
			name: "empty_and_blank_paths_excluded",
			records: []types.ChangeFileRecord{
				record("", types.StatusAdded),
				record("   ", types.StatusAdded),
				record("docs/guide.md", types.StatusAdded),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name:    "docs",
						Changes: []types.ChangeFileRecord{record("docs/guide.md", types.StatusAdded)},
					},
				},
			},
		},
		{
			name: "redundant_separators_normalized",
			records: []types.ChangeFileRecord{
				record("./lib//util/x.go", types.StatusModified),
				record("lib/util/y.go", types.StatusDeleted),
			},
			expected: folderShape{
				Children: []folderShape{
					{
						Name: "lib",
						Children: []folderShape{
							{
								Name: "util",
								Changes: []types.ChangeFileRecord{
									record("./lib//util/x.go", types.StatusModified),
									record("lib/util/y.go", types.StatusDeleted),
								},
							},
						},
					},
				},
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			root := changetree.Build(testCase.records)
			actual := shapeOf(root)
			if !reflect.DeepEqual(actual, testCase.expected) {
				t.Fatalf("unexpected tree\nexpected: %+v\nactual:   %+v", testCase.expected, actual)
			}
			expectEmpty := len(testCase.expected.Children) == 0 && len(testCase.expected.Changes) == 0
			if root.IsEmpty() != expectEmpty {
				t.Fatalf("IsEmpty %t, expected %t", root.IsEmpty(), expectEmpty)
			}
			if verifyError := changetree.Verify(root); verifyError != nil {
				t.Fatalf("built tree failed verification: %v", verifyError)
			}
		})
	}
}

func TestBuildReusesSharedPrefixNodes(t *testing.T) {
	root := changetree.Build([]types.ChangeFileRecord{
		record("src/a/one.txt", types.StatusAdded),
		record("src/b/two.txt", types.StatusAdded),
		record("SRC/c/three.txt", types.StatusAdded),
	})
	if len(root.Children()) != 1 {
		t.Fatalf("expected a single top-level folder, got %d", len(root.Children()))
	}
	source, found := root.Child("src")
	if !found {
		t.Fatalf("expected src folder")
	}
	upper, _ := root.Child("SRC")
	if upper != source {
		t.Fatalf("case-insensitive lookup returned a different node")
	}
	var names []string
	for _, child := range source.Children() {
		names = append(names, child.Name())
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Fatalf("unexpected child order %v", names)
	}
}

func TestBuildIncludeRootChanges(t *testing.T) {
	records := []types.ChangeFileRecord{
		record("readme.md", types.StatusModified),
		record("cmd/main.go", types.StatusAdded),
	}
	root := changetree.BuildWithOptions(records, changetree.Options{IncludeRootChanges: true})
	rootChanges := root.DirectChanges()
	if len(rootChanges) != 1 || rootChanges[0].Path != "readme.md" {
		t.Fatalf("expected readme.md on the root, got %+v", rootChanges)
	}
	if verifyError := changetree.Verify(root); verifyError != nil {
		t.Fatalf("verification failed: %v", verifyError)
	}
	if defaultRoot := changetree.Build(records); len(defaultRoot.DirectChanges()) != 0 {
		t.Fatalf("default build must drop root-level changes")
	}
}

// propertyInputs feeds the structural property checks.
var propertyInputs = [][]types.ChangeFileRecord{
	{
		record("a/b/c/d.txt", types.StatusAdded),
		record("a/b/e.txt", types.StatusModified),
		record("A/B/C/f.txt", types.StatusDeleted),
		record("x/y.txt", types.StatusAdded),
		record("top.txt", types.StatusModified),
	},
	{
		record("one/two/three/four/five.txt", types.StatusAdded),
		record("one/TWO/other.txt", types.StatusDeleted),
		record("one/two/three/four/six.txt", types.StatusModified),
	},
	{
		record("same/file.txt", types.StatusModified),
		record("same/file.txt", types.StatusModified),
	},
}

func TestBuildProperties(t *testing.T) {
	for inputIndex, records := range propertyInputs {
		root := changetree.Build(records)

		assignedCount := map[string]int{}
		_ = changetree.Walk(root, func(visit changetree.Visit) error {
			if visit.Kind == changetree.VisitChange {
				assignedCount[visit.Change.Path]++
			}
			return nil
		})
		expectedCount := map[string]int{}
		maximumSegments := 0
		for _, input := range records {
			parent := changetree.ParentDirectory(input.Path)
			if parent == "" {
				continue
			}
			expectedCount[input.Path]++
			if segmentCount := len(strings.Split(parent, "/")); segmentCount > maximumSegments {
				maximumSegments = segmentCount
			}
		}
		if !reflect.DeepEqual(assignedCount, expectedCount) {
			t.Errorf("input %d: assignment counts %v, expected %v", inputIndex, assignedCount, expectedCount)
		}
		if root.Depth() != maximumSegments {
			t.Errorf("input %d: depth %d, expected %d", inputIndex, root.Depth(), maximumSegments)
		}
		if !reflect.DeepEqual(shapeOf(root), shapeOf(changetree.Build(records))) {
			t.Errorf("input %d: repeated build produced a different tree", inputIndex)
		}
		if verifyError := changetree.Verify(root); verifyError != nil {
			t.Errorf("input %d: %v", inputIndex, verifyError)
		}
	}
}

func TestBuildReturnsFreshNodes(t *testing.T) {
	records := []types.ChangeFileRecord{record("a/b.txt", types.StatusAdded)}
	first := changetree.Build(records)
	second := changetree.Build(records)
	firstChild, _ := first.Child("a")
	secondChild, _ := second.Child("a")
	if firstChild == secondChild {
		t.Fatalf("builds share node instances")
	}
}

func TestPathHelpers(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedParent string
		expectedFile   string
	}{
		{name: "nested", input: "src/a/file.txt", expectedParent: "src/a", expectedFile: "file.txt"},
		{name: "root_file", input: "file.txt", expectedParent: "", expectedFile: "file.txt"},
		{name: "empty", input: "", expectedParent: "", expectedFile: ""},
		{name: "leading_slash", input: "/src/file.txt", expectedParent: "src", expectedFile: "file.txt"},
		{name: "escapes_root", input: "../src/file.txt", expectedParent: "", expectedFile: ""},
		{name: "dot_dot_inside", input: "src/tmp/../file.txt", expectedParent: "src", expectedFile: "file.txt"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			if parent := changetree.ParentDirectory(testCase.input); parent != testCase.expectedParent {
				t.Errorf("parent %q, expected %q", parent, testCase.expectedParent)
			}
			if file := changetree.FileName(testCase.input); file != testCase.expectedFile {
				t.Errorf("file %q, expected %q", file, testCase.expectedFile)
			}
		})
	}
}

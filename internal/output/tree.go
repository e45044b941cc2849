package output

import (
	"path/filepath"
	"sort"
	"strings"
)

const (
	// Tree characters
	treeEdge  = "├── "
	treeLast  = "└── "
	treeVert  = "│   "
	treeSpace = "    "

	// Description alignment column
	descriptionColumn = 30
)

// TreeNode represents a node in the file tree.
type TreeNode struct {
	Name        string
	Description string
	IsDir       bool
	Children    []*TreeNode
}

// RenderFileTree renders a file tree with descriptions aligned at column 30.
// Files is a map of package-relative paths to their descriptions (e.g. the
// component or module a fragment was linked to). RootName is the root
// directory name.
func RenderFileTree(rootName string, files map[string]string) string {
	if len(files) == 0 {
		return ""
	}

	root := &TreeNode{
		Name:     rootName,
		IsDir:    true,
		Children: []*TreeNode{},
	}

	for path, desc := range files {
		parts := strings.Split(filepath.ToSlash(path), "/")
		current := root

		for i, part := range parts {
			isLast := i == len(parts)-1

			var child *TreeNode
			for _, c := range current.Children {
				if c.Name == part {
					child = c
					break
				}
			}

			if child == nil {
				child = &TreeNode{
					Name:     part,
					IsDir:    !isLast,
					Children: []*TreeNode{},
				}
				if isLast {
					child.Description = desc
				}
				current.Children = append(current.Children, child)
			}

			current = child
		}
	}

	sortTree(root)

	var sb strings.Builder
	sb.WriteString(root.Name + "/\n")
	renderChildren(&sb, root.Children, "")
	return sb.String()
}

// sortTree sorts children recursively: directories first, then by name.
func sortTree(node *TreeNode) {
	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, c := range node.Children {
		sortTree(c)
	}
}

func renderChildren(sb *strings.Builder, children []*TreeNode, prefix string) {
	for i, child := range children {
		last := i == len(children)-1

		edge := treeEdge
		if last {
			edge = treeLast
		}

		name := child.Name
		if child.IsDir {
			name += "/"
		}

		line := prefix + edge + name
		if child.Description != "" {
			padding := descriptionColumn - len(line)
			if padding < 1 {
				padding = 1
			}
			line += strings.Repeat(" ", padding) + StyleDim.Render(child.Description)
		}
		sb.WriteString(line + "\n")

		childPrefix := prefix + treeVert
		if last {
			childPrefix = prefix + treeSpace
		}
		renderChildren(sb, child.Children, childPrefix)
	}
}

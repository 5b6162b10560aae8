package schema

import (
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/bmad-plugin/bmadsync/internal/artifact"
)

// workflowKeys are the agent menu keys whose values point at a workflow
// definition file.
var workflowKeys = map[string]bool{"exec": true, "workflow": true}

// AgentWorkflows returns the workflow directory names referenced by an
// upstream *.agent.yaml, in first-seen order without duplicates. Only
// "exec" and "workflow" values ending in workflow.md or workflow.yaml count,
// wherever they appear in the document.
func AgentWorkflows(content []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse agent definition: %w", err)
	}

	var names []string
	seen := make(map[string]bool)
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(n.Content); i += 2 {
				key, val := n.Content[i], n.Content[i+1]
				if workflowKeys[key.Value] && val.Kind == yaml.ScalarNode {
					if name, ok := workflowDir(val.Value); ok && !seen[name] {
						seen[name] = true
						names = append(names, name)
					}
				}
			}
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	walk(&doc)
	return names, nil
}

// workflowDir returns the directory name holding a workflow definition path
// such as "{project-root}/_bmad/bmm/workflows/2-plan/create-prd/workflow.md".
func workflowDir(p string) (string, bool) {
	if !artifact.IsLeafMarker(path.Base(p)) {
		return "", false
	}
	dir := path.Dir(p)
	name := path.Base(dir)
	if dir == "." || name == "/" || name == "." || name == "" {
		return "", false
	}
	return name, true
}

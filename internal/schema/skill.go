package schema

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Skill is the frontmatter of a plugin SKILL.md
type Skill struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	AllowedTools []string `yaml:"allowed-tools,omitempty"`

	// Body is the markdown after the frontmatter
	Body string `yaml:"-"`
}

// ParseSkill parses SKILL.md content. A file without frontmatter yields an
// empty Name.
func ParseSkill(content []byte) (*Skill, error) {
	skill := &Skill{}
	body, err := ParseFrontmatterTyped(content, skill)
	if err != nil {
		return nil, err
	}
	skill.Body = body
	return skill, nil
}

// WorkflowDefinition is the metadata of an upstream workflow.yaml or the
// frontmatter of a workflow.md
type WorkflowDefinition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Author      string `yaml:"author,omitempty"`
	Standalone  bool   `yaml:"standalone,omitempty"`
}

// ParseWorkflowDefinition parses a workflow definition file, choosing the
// format by filename.
func ParseWorkflowDefinition(filename string, content []byte) (*WorkflowDefinition, error) {
	def := &WorkflowDefinition{}
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, def); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
	case ".md":
		if _, err := ParseFrontmatterTyped(content, def); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported workflow definition: %s", filename)
	}
	return def, nil
}

package source

// Default returns the built-in source table.
func Default() *Registry {
	return NewRegistry(
		Descriptor{
			ID:          "core",
			Name:        "BMAD Method",
			Repo:        "bmadcode/BMAD-METHOD",
			LocalPath:   "BMAD-METHOD",
			VersionFile: ".upstream-version",
			Enabled:     true,
			ContentRoot: "src/bmm/workflows",
			AgentsRoot:  "src/bmm/agents",
			SpecialRoots: map[string]string{
				"core": "src/core/workflows",
			},
			SkipDirs:      []string{"_shared", "templates", "workflows"},
			SkipWorkflows: []string{"automate"},
			SkipContentFiles: []string{
				"workflow.md",
				"workflow.yaml",
				"SKILL.md",
			},
			Workarounds:      map[string]string{},
			PluginOnlySkills: []string{"help", "init", "status", "brainstorming"},
			PluginOnlyAgents: []string{"bmad-master", "tech-writer"},
			PluginOnlyData:   []string{"quick-dev/data/project-levels.yaml"},
			SharedFileTargets: map[string][]string{
				"excalidraw-diagrams": {
					"create-dataflow",
					"create-diagram",
					"create-flowchart",
					"create-wireframe",
				},
			},
		},
		Descriptor{
			ID:          "tea",
			Name:        "Test Architecture Enterprise",
			Repo:        "bmad-code-org/bmad-method-test-architecture-enterprise",
			LocalPath:   "bmad-tea",
			VersionFile: ".upstream-version-tea",
			Enabled:     true,
			ContentRoot: "src/workflows/testarch",
			AgentsRoot:  "src/agents",
			Flat:        true,
			RefPrefix:   "testarch",
			SkipDirs:    []string{"_shared", "templates"},
			SkipContentFiles: []string{
				"workflow.md",
				"workflow.yaml",
				"SKILL.md",
				"workflow-plan.md",
				"workflow-plan-teach-me-testing.md",
			},
			SkipContentPatterns: []string{"**/validation-report-*.md"},
			Workarounds:         map[string]string{},
		},
		Descriptor{
			ID:               "bmb",
			Name:             "BMAD Builder",
			Repo:             "bmad-code-org/bmad-builder",
			LocalPath:        "bmad-builder",
			VersionFile:      ".upstream-version-bmb",
			ContentRoot:      "src/workflows",
			AgentsRoot:       "src/agents",
			Flat:             true,
			SkipDirs:         []string{"_shared", "templates"},
			SkipContentFiles: []string{"workflow.md", "workflow.yaml", "SKILL.md"},
		},
		Descriptor{
			ID:               "cis",
			Name:             "Creative Intelligence Suite",
			Repo:             "bmad-code-org/bmad-module-creative-intelligence-suite",
			LocalPath:        "bmad-cis",
			VersionFile:      ".upstream-version-cis",
			ContentRoot:      "src/workflows",
			AgentsRoot:       "src/agents",
			Flat:             true,
			SkipDirs:         []string{"_shared", "templates"},
			SkipContentFiles: []string{"workflow.md", "workflow.yaml", "SKILL.md"},
		},
		Descriptor{
			ID:               "gds",
			Name:             "Game Dev Studio",
			Repo:             "bmad-code-org/bmad-module-game-dev-studio",
			LocalPath:        "bmad-gds",
			VersionFile:      ".upstream-version-gds",
			ContentRoot:      "src/workflows",
			AgentsRoot:       "src/agents",
			SkipDirs:         []string{"_shared", "templates"},
			SkipContentFiles: []string{"workflow.md", "workflow.yaml", "SKILL.md"},
		},
	)
}

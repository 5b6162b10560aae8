package artifact

// File and directory name constants shared by discovery, rewriting and the checks.
const (
	// SkillFilename is the plugin-side definition file of every skill
	SkillFilename = "SKILL.md"

	// WorkflowYAML and WorkflowMD are the upstream leaf markers: a directory
	// containing either one is a workflow
	WorkflowYAML = "workflow.yaml"
	WorkflowMD   = "workflow.md"

	// SkillsDirName is the plugin directory holding one directory per skill
	SkillsDirName = "skills"

	// AgentsDirName is the plugin directory holding agent markdown files
	AgentsDirName = "agents"

	// SharedDirName holds files distributed to several skills
	SharedDirName = "_shared"

	// TasksDirName is the shared task directory, both upstream and in the plugin
	TasksDirName = "tasks"

	// DataDirName is where a skill keeps its copies of shared files
	DataDirName = "data"

	// AgentYAMLSuffix marks an upstream agent definition
	AgentYAMLSuffix = ".agent.yaml"

	// PluginManifestPath is the manifest location relative to the plugin root
	PluginManifestPath = ".claude-plugin/plugin.json"

	// PluginVersionFile tracks the plugin version at the project root
	PluginVersionFile = ".plugin-version"

	// SkillNamePrefix is prepended to the directory name in SKILL.md front-matter
	SkillNamePrefix = "bmad-"
)

// LeafMarkers lists the files whose presence makes a directory a workflow.
var LeafMarkers = []string{WorkflowYAML, WorkflowMD}

// IsLeafMarker reports whether name is a workflow definition filename.
func IsLeafMarker(name string) bool {
	return name == WorkflowYAML || name == WorkflowMD
}

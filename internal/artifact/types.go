package artifact

import "strings"

// PluginManifest represents .claude-plugin/plugin.json
type PluginManifest struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Version     string       `json:"version,omitempty"`
	Author      PluginAuthor `json:"author,omitempty"`
	Repository  *PluginRepo  `json:"repository,omitempty"`

	// Commands is the explicit skill list ("./skills/<name>/")
	Commands []string `json:"commands,omitempty"`
	// Skills enables auto-discovery of every skill directory when set
	Skills any `json:"skills,omitempty"`
}

// PluginAuthor represents plugin author info
type PluginAuthor struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// PluginRepo represents plugin repository info
type PluginRepo struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// CommandNames returns the skill names listed in Commands, stripped of the
// "./skills/" prefix and trailing slash.
func (m *PluginManifest) CommandNames() []string {
	names := make([]string, 0, len(m.Commands))
	for _, c := range m.Commands {
		c = strings.TrimPrefix(c, "./"+SkillsDirName+"/")
		c = strings.TrimSuffix(c, "/")
		names = append(names, c)
	}
	return names
}

// AutoDiscoversSkills reports whether the manifest relies on "skills" discovery
// instead of an explicit commands list.
func (m *PluginManifest) AutoDiscoversSkills() bool {
	return m.Commands == nil && m.Skills != nil
}

package mitre

// Technique is a single ATT&CK technique reference entry
type Technique struct {
	TechniqueID string   `json:"technique_id" yaml:"technique_id"`
	Name        string   `json:"name" yaml:"name"`
	Tactic      string   `json:"tactic" yaml:"tactic"`
	Description string   `json:"description" yaml:"description"`
	Platforms   []string `json:"platforms" yaml:"platforms"`
	URL         string   `json:"url" yaml:"url"`
}

package mitre

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"argus/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// techniqueFile is the on-disk YAML shape
type techniqueFile struct {
	Techniques []Technique `yaml:"techniques"`
}

// Registry holds the loaded ATT&CK technique reference table
type Registry struct {
	mu         sync.RWMutex
	techniques []Technique
	logger     *zap.SugaredLogger
}

// NewRegistry creates an empty technique registry
func NewRegistry(logger *zap.SugaredLogger) *Registry {
	return &Registry{logger: logger}
}

// LoadFile replaces the registry contents with techniques from a YAML file
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read technique file: %w", err)
	}

	var file techniqueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse technique file: %w", err)
	}
	if len(file.Techniques) == 0 {
		return fmt.Errorf("technique file %s contains no techniques", path)
	}

	r.mu.Lock()
	r.techniques = file.Techniques
	r.mu.Unlock()

	r.logger.Infow("Loaded MITRE techniques", "path", path, "count", len(file.Techniques))
	return nil
}

// Seed populates the registry with the built-in sample techniques. It is a
// no-op when techniques are already present.
func (r *Registry) Seed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.techniques) > 0 {
		return 0
	}
	r.techniques = append(r.techniques, seedTechniques...)
	r.logger.Infow("Seeded MITRE techniques", "count", len(seedTechniques))
	return len(seedTechniques)
}

// Techniques returns techniques, optionally restricted to one tactic.
// The "all" sentinel and an empty tactic both mean no restriction.
func (r *Registry) Techniques(tactic string) []Technique {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tactic == "" || tactic == core.FilterAll {
		out := make([]Technique, len(r.techniques))
		copy(out, r.techniques)
		return out
	}
	out := make([]Technique, 0)
	for _, t := range r.techniques {
		if t.Tactic == tactic {
			out = append(out, t)
		}
	}
	return out
}

// Tactics returns the sorted set of distinct tactics
func (r *Registry) Tactics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	tactics := make([]string, 0)
	for _, t := range r.techniques {
		if !seen[t.Tactic] {
			seen[t.Tactic] = true
			tactics = append(tactics, t.Tactic)
		}
	}
	sort.Strings(tactics)
	return tactics
}

// seedTechniques is the built-in sample table used when no YAML file is
// configured
var seedTechniques = []Technique{
	{
		TechniqueID: "T1566",
		Name:        "Phishing",
		Tactic:      "Initial Access",
		Description: "Adversaries may send phishing messages to gain access to victim systems.",
		Platforms:   []string{"Linux", "macOS", "Windows"},
		URL:         "https://attack.mitre.org/techniques/T1566/",
	},
	{
		TechniqueID: "T1190",
		Name:        "Exploit Public-Facing Application",
		Tactic:      "Initial Access",
		Description: "Adversaries may attempt to exploit a weakness in an Internet-facing host or system.",
		Platforms:   []string{"Linux", "Windows", "macOS", "Network"},
		URL:         "https://attack.mitre.org/techniques/T1190/",
	},
	{
		TechniqueID: "T1059",
		Name:        "Command and Scripting Interpreter",
		Tactic:      "Execution",
		Description: "Adversaries may abuse command and script interpreters to execute commands, scripts, or binaries.",
		Platforms:   []string{"Linux", "macOS", "Windows"},
		URL:         "https://attack.mitre.org/techniques/T1059/",
	},
	{
		TechniqueID: "T1110",
		Name:        "Brute Force",
		Tactic:      "Credential Access",
		Description: "Adversaries may use brute force techniques to gain access to accounts.",
		Platforms:   []string{"Linux", "macOS", "Windows", "Office 365", "Azure AD"},
		URL:         "https://attack.mitre.org/techniques/T1110/",
	},
	{
		TechniqueID: "T1071",
		Name:        "Application Layer Protocol",
		Tactic:      "Command and Control",
		Description: "Adversaries may communicate using application layer protocols to avoid detection.",
		Platforms:   []string{"Linux", "macOS", "Windows"},
		URL:         "https://attack.mitre.org/techniques/T1071/",
	},
	{
		TechniqueID: "T1048",
		Name:        "Exfiltration Over Alternative Protocol",
		Tactic:      "Exfiltration",
		Description: "Adversaries may steal data by exfiltrating it over a different protocol than the existing command and control channel.",
		Platforms:   []string{"Linux", "macOS", "Windows"},
		URL:         "https://attack.mitre.org/techniques/T1048/",
	},
}

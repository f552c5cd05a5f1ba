package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"PortWatch/internal/domain/models"
)

// ruleFile is the on-disk shape of a rules table.
type ruleFile struct {
	Rules []ruleYAML `yaml:"rules"`
}

type ruleYAML struct {
	ID         string                     `yaml:"id"`
	Action     string                     `yaml:"action"`
	Source     string                     `yaml:"source"`
	Metric     string                     `yaml:"metric"`
	Method     string                     `yaml:"method"`
	Logic      string                     `yaml:"logic"`
	Severity   string                     `yaml:"severity"`
	EscalateAt float64                    `yaml:"escalate_at"`
	Order      int                        `yaml:"order"`
	Message    string                     `yaml:"message"`
	Regions    []string                   `yaml:"regions"`
	Thresholds map[string]map[int]float64 `yaml:"thresholds"`
}

// Load reads a YAML rules table from disk and returns a validated Set.
// The file replaces the built-in table wholesale; there is no merging.
func Load(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var f ruleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}

	defs := make([]models.RuleDefinition, 0, len(f.Rules))
	for _, r := range f.Rules {
		defs = append(defs, r.toModel())
	}
	return New(defs)
}

// LoadOrDefaults loads the table at path when one is configured, and falls
// back to the built-in table when path is empty.
func LoadOrDefaults(path string) (*Set, error) {
	if path == "" {
		return New(Defaults())
	}
	return Load(path)
}

func (r ruleYAML) toModel() models.RuleDefinition {
	def := models.RuleDefinition{
		ID:         r.ID,
		Action:     models.ActionType(r.Action),
		Source:     models.DataSource(r.Source),
		Metric:     models.Metric(r.Metric),
		Method:     models.EvalMethod(r.Method),
		Logic:      models.CompareOp(r.Logic),
		Severity:   models.Severity(r.Severity),
		EscalateAt: r.EscalateAt,
		Order:      r.Order,
		Message:    r.Message,
	}
	for _, reg := range r.Regions {
		def.Regions = append(def.Regions, models.Region(reg))
	}
	if len(r.Thresholds) > 0 {
		def.Thresholds = make(map[models.Classification]map[int]float64, len(r.Thresholds))
		for class, tiers := range r.Thresholds {
			m := make(map[int]float64, len(tiers))
			for tier, v := range tiers {
				m[tier] = v
			}
			def.Thresholds[models.Classification(class)] = m
		}
	}
	return def
}

package config

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/jackwharrison/krcs-bitrix/pkg/errors"
)

// MatchingRule pairs a beneficiary field with a project field. A project
// whose resolved label at ProjectField is the canonical yes value only
// matches beneficiaries whose resolved label at BeneficiaryField is also
// yes; a project answering anything else imposes no constraint.
type MatchingRule struct {
	Name             string `yaml:"name"`
	BeneficiaryField string `yaml:"beneficiary_field"`
	ProjectField     string `yaml:"project_field"`
}

type rulesFile struct {
	Rules []MatchingRule `yaml:"rules"`
}

// LoadRules reads the ordered matching-rule list from a YAML file.
// A missing file yields an empty rule list; ValidateEligibility rejects
// an empty list before anything is fetched.
func LoadRules(path string) ([]MatchingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errors.ConfigError{Key: "rules_file", Message: err.Error()}
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, &errors.ConfigError{Key: "rules_file", Message: "invalid YAML: " + err.Error()}
	}

	for _, rule := range rf.Rules {
		if rule.BeneficiaryField == "" || rule.ProjectField == "" {
			return nil, &errors.ConfigError{
				Key:     "rules_file",
				Message: "every rule needs beneficiary_field and project_field",
			}
		}
	}
	return rf.Rules, nil
}

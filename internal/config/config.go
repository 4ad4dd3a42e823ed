// Package config builds the explicit configuration object every
// reconciliation task receives. Values come from Viper (config file plus
// environment), matching rules from a YAML rules file. Nothing in the
// engine reads ambient configuration state; a Config is resolved once at
// task start and passed down by value.
package config

import (
	"github.com/spf13/viper"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
	"github.com/jackwharrison/krcs-bitrix/pkg/errors"
)

// EnumPair holds the raw enum values written for the unique and duplicate
// outcomes of a duplicate-flag field.
type EnumPair struct {
	Unique    string `mapstructure:"unique"`
	Duplicate string `mapstructure:"duplicate"`
}

// Stages holds the workflow stage identifiers the engine filters and
// transitions on.
type Stages struct {
	// Registration is the active-registration stage; only records here are
	// compared against during duplicate checks.
	Registration string `mapstructure:"registration"`
	// Verified is the stage beneficiaries are demoted to when they stop
	// matching any open project, and after a reset.
	Verified string `mapstructure:"verified"`
	// Eligible is the confirmed-eligible stage; the only stage the
	// eligibility task ever demotes from.
	Eligible string `mapstructure:"eligible"`
	// ProjectSelection is the project stage meaning "open for selection".
	ProjectSelection string `mapstructure:"project_selection"`
	// Completed is the stage the reset task drains.
	Completed string `mapstructure:"completed"`
}

// Fields holds the CRM user-field codes the engine reads and writes.
type Fields struct {
	NationalID      string `mapstructure:"national_id"`
	FullName        string `mapstructure:"full_name"`
	DuplicateFlag   string `mapstructure:"duplicate_flag"`
	DuplicateReason string `mapstructure:"duplicate_reason"`

	ChildDOB         string `mapstructure:"child_dob"`
	ChildAge         string `mapstructure:"child_age"`
	HouseholdFlag    string `mapstructure:"household_flag"`
	HouseholdMatches string `mapstructure:"household_matches"`

	Eligible     string `mapstructure:"eligible"`
	ProgramCount string `mapstructure:"program_count"`
	ProgramNames string `mapstructure:"program_names"`

	PaymentNationalID  string `mapstructure:"payment_national_id"`
	PaymentProjectType string `mapstructure:"payment_project_type"`

	PreviousProjects string `mapstructure:"previous_projects"`
	AssignmentDate   string `mapstructure:"assignment_date"`
}

// Enums holds the write-back enum values for the duplicate-flag fields.
type Enums struct {
	DuplicateFlag EnumPair `mapstructure:"duplicate_flag"`
	HouseholdFlag EnumPair `mapstructure:"household_flag"`
}

// Config is the full, explicit configuration for one run.
type Config struct {
	WebhookURL string `mapstructure:"webhook_url"`
	// PortalURL is the portal base used when building merge reference links,
	// e.g. "https://example.bitrix24.kg".
	PortalURL string `mapstructure:"portal_url"`

	BeneficiaryEntityTypeID bitrix.EntityTypeID `mapstructure:"beneficiary_entity_type_id"`
	ProjectEntityTypeID     bitrix.EntityTypeID `mapstructure:"project_entity_type_id"`
	PaymentEntityTypeID     bitrix.EntityTypeID `mapstructure:"payment_entity_type_id"`
	ChildEntityTypeID       bitrix.EntityTypeID `mapstructure:"child_entity_type_id"`

	Stages Stages `mapstructure:"stages"`
	Fields Fields `mapstructure:"fields"`
	Enums  Enums  `mapstructure:"enums"`

	// YesLabel is the resolved enum label meaning "yes" in matching rules.
	YesLabel string `mapstructure:"yes_label"`

	// RulesFile points at the YAML matching-rules file.
	RulesFile string `mapstructure:"rules_file"`

	// Rules is populated from RulesFile by Load.
	Rules []MatchingRule `mapstructure:"-"`
}

// Load builds a Config from the given Viper instance and loads the
// matching rules file. It does not validate; tasks call the Validate
// variant they need before touching the network.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("yes_label", "yes")
	v.SetDefault("rules_file", "rules.yaml")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &errors.ConfigError{Message: err.Error()}
	}

	rules, err := LoadRules(cfg.RulesFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Rules = rules
	return cfg, nil
}

// requireKeys returns a ConfigError for the first empty value.
func requireKeys(pairs [][2]string) error {
	for _, pair := range pairs {
		if pair[1] == "" {
			return &errors.ConfigError{Key: pair[0], Message: "must be set"}
		}
	}
	return nil
}

func (c Config) requireEntityType(key string, id bitrix.EntityTypeID) error {
	if id == 0 {
		return &errors.ConfigError{Key: key, Message: "must be set"}
	}
	return nil
}

// ValidateCore checks the keys every task needs.
func (c Config) ValidateCore() error {
	if err := requireKeys([][2]string{{"webhook_url", c.WebhookURL}}); err != nil {
		return err
	}
	return c.requireEntityType("beneficiary_entity_type_id", c.BeneficiaryEntityTypeID)
}

// ValidateIDDedup checks the keys the national-ID/name duplicate task needs.
func (c Config) ValidateIDDedup() error {
	if err := c.ValidateCore(); err != nil {
		return err
	}
	return requireKeys([][2]string{
		{"portal_url", c.PortalURL},
		{"stages.registration", c.Stages.Registration},
		{"fields.national_id", c.Fields.NationalID},
		{"fields.full_name", c.Fields.FullName},
		{"fields.duplicate_flag", c.Fields.DuplicateFlag},
		{"fields.duplicate_reason", c.Fields.DuplicateReason},
		{"enums.duplicate_flag.unique", c.Enums.DuplicateFlag.Unique},
		{"enums.duplicate_flag.duplicate", c.Enums.DuplicateFlag.Duplicate},
	})
}

// ValidateHouseholdDedup checks the keys the household dedup task needs.
func (c Config) ValidateHouseholdDedup() error {
	if err := c.ValidateCore(); err != nil {
		return err
	}
	if err := c.requireEntityType("child_entity_type_id", c.ChildEntityTypeID); err != nil {
		return err
	}
	return requireKeys([][2]string{
		{"portal_url", c.PortalURL},
		{"stages.registration", c.Stages.Registration},
		{"fields.child_dob", c.Fields.ChildDOB},
		{"fields.household_flag", c.Fields.HouseholdFlag},
		{"fields.household_matches", c.Fields.HouseholdMatches},
		{"enums.household_flag.unique", c.Enums.HouseholdFlag.Unique},
		{"enums.household_flag.duplicate", c.Enums.HouseholdFlag.Duplicate},
	})
}

// ValidatePaymentDedup checks the keys the payment dedup task needs.
func (c Config) ValidatePaymentDedup() error {
	if err := requireKeys([][2]string{{"webhook_url", c.WebhookURL}}); err != nil {
		return err
	}
	if err := c.requireEntityType("payment_entity_type_id", c.PaymentEntityTypeID); err != nil {
		return err
	}
	return requireKeys([][2]string{
		{"fields.payment_national_id", c.Fields.PaymentNationalID},
		{"fields.payment_project_type", c.Fields.PaymentProjectType},
	})
}

// ValidateEligibility checks the keys the eligibility task needs.
func (c Config) ValidateEligibility() error {
	if err := c.ValidateCore(); err != nil {
		return err
	}
	if err := c.requireEntityType("project_entity_type_id", c.ProjectEntityTypeID); err != nil {
		return err
	}
	if err := requireKeys([][2]string{
		{"stages.verified", c.Stages.Verified},
		{"stages.eligible", c.Stages.Eligible},
		{"stages.project_selection", c.Stages.ProjectSelection},
		{"fields.eligible", c.Fields.Eligible},
		{"fields.program_count", c.Fields.ProgramCount},
		{"fields.program_names", c.Fields.ProgramNames},
	}); err != nil {
		return err
	}
	if len(c.Rules) == 0 {
		return &errors.ConfigError{Key: "rules_file", Message: "no matching rules loaded"}
	}
	return nil
}

// ValidateReset checks the keys the reset task needs.
func (c Config) ValidateReset() error {
	if err := c.ValidateCore(); err != nil {
		return err
	}
	if err := c.requireEntityType("project_entity_type_id", c.ProjectEntityTypeID); err != nil {
		return err
	}
	return requireKeys([][2]string{
		{"stages.verified", c.Stages.Verified},
		{"stages.completed", c.Stages.Completed},
		{"fields.previous_projects", c.Fields.PreviousProjects},
	})
}

// ValidateAges checks the keys the child-age task needs.
func (c Config) ValidateAges() error {
	if err := requireKeys([][2]string{{"webhook_url", c.WebhookURL}}); err != nil {
		return err
	}
	if err := c.requireEntityType("child_entity_type_id", c.ChildEntityTypeID); err != nil {
		return err
	}
	return requireKeys([][2]string{
		{"fields.child_dob", c.Fields.ChildDOB},
		{"fields.child_age", c.Fields.ChildAge},
	})
}

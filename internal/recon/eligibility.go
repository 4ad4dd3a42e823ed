package recon

import (
	"fmt"

	"github.com/jackwharrison/krcs-bitrix/internal/config"
	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

// Matcher evaluates beneficiaries against project matching rules using
// resolved enum labels. Raw enum codes differ between portals; the label
// is the semantic identity.
type Matcher struct {
	Rules  []config.MatchingRule
	Labels bitrix.FieldLabelTable
	// YesLabel is the canonical affirmative label, compared post-normalization.
	YesLabel string
}

// Decision is the exact write-back outcome for one beneficiary after all
// open projects were processed.
type Decision struct {
	ID            int64
	Eligible      bool
	MatchCount    int
	ProjectTitles []string
	// RevertStage is set only when a beneficiary in the confirmed-eligible
	// stage stopped matching every open project: it is demoted back to the
	// verified stage. No other stage ever triggers a stage write.
	RevertStage bool
}

// Matches reports whether the beneficiary satisfies every rule the project
// activates. A rule constrains only when the project's resolved label is
// the yes value; the beneficiary must then resolve to yes on its side.
func (m Matcher) Matches(project, beneficiary bitrix.Record) bool {
	yes := Normalize(m.YesLabel)
	for _, rule := range m.Rules {
		projRaw, _ := project.String(rule.ProjectField)
		projLabel, _ := m.Labels.Label(rule.ProjectField, projRaw)
		if Normalize(projLabel) != yes {
			continue
		}

		benRaw, _ := beneficiary.String(rule.BeneficiaryField)
		benLabel, _ := m.Labels.Label(rule.BeneficiaryField, benRaw)
		if Normalize(benLabel) != yes {
			return false
		}
	}
	return true
}

// Evaluate runs every open project against every candidate beneficiary and
// folds the matches into one Decision per beneficiary. Beneficiaries are
// assumed pre-filtered to the candidate stages; projects to the open-for-
// selection stage.
func (m Matcher) Evaluate(projects, beneficiaries []bitrix.Record, eligibleStage string) []Decision {
	matched := make(map[int64][]string)

	for _, project := range projects {
		title := project.Title()
		if title == "" {
			title = fmt.Sprintf("Project %d", project.ID())
		}
		for _, ben := range beneficiaries {
			if m.Matches(project, ben) {
				matched[ben.ID()] = append(matched[ben.ID()], title)
			}
		}
	}

	decisions := make([]Decision, 0, len(beneficiaries))
	for _, ben := range beneficiaries {
		titles := matched[ben.ID()]
		d := Decision{
			ID:            ben.ID(),
			Eligible:      len(titles) > 0,
			MatchCount:    len(titles),
			ProjectTitles: titles,
		}
		if !d.Eligible && ben.StageID() == eligibleStage {
			d.RevertStage = true
		}
		decisions = append(decisions, d)
	}
	return decisions
}

package tasks

import (
	"context"
	"strconv"
	"time"

	"github.com/jackwharrison/krcs-bitrix/pkg/logging"
)

// dobFormats are the date renderings the CRM emits for the child
// date-of-birth field, tried in order.
var dobFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02T15:04:05-07:00",
}

// Ages recomputes each child's whole-year age from its date of birth and
// writes it back only when the stored value is missing or stale.
// Unparseable dates are skipped, not errors.
func (r *Runner) Ages(ctx context.Context) (Summary, error) {
	summary := Summary{Task: "ages"}
	cfg := r.Config

	if err := cfg.ValidateAges(); err != nil {
		return summary, err
	}

	r.printf("Fetching all children...")
	children, err := r.Client.ListAll(ctx, cfg.ChildEntityTypeID, nil)
	if err != nil {
		return summary, err
	}

	now := time.Now()
	for _, kid := range children {
		raw, ok := kid.NonEmpty(cfg.Fields.ChildDOB)
		if !ok {
			summary.Skipped++
			continue
		}

		dob, ok := parseDOB(raw)
		if !ok {
			logging.Warn().Int64("id", kid.ID()).Str("dob", raw).Msg("could not parse date of birth")
			summary.Skipped++
			continue
		}

		age := yearsBetween(dob, now)
		current, hasCurrent := kid.NonEmpty(cfg.Fields.ChildAge)
		if hasCurrent && current == strconv.Itoa(age) {
			summary.Skipped++
			continue
		}

		r.update(ctx, &summary, cfg.ChildEntityTypeID, kid.ID(), map[string]any{
			cfg.Fields.ChildAge: age,
		})
	}

	r.printf("Age update complete: %d updated, %d skipped, %d failed.",
		summary.Updated, summary.Skipped, summary.Failed())
	r.noteDryRun()
	return summary, nil
}

func parseDOB(raw string) (time.Time, bool) {
	for _, format := range dobFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// yearsBetween counts completed years from dob to now.
func yearsBetween(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

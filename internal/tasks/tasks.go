// Package tasks contains the reconciliation drivers: one entry point per
// task, each running the same sequential shape: fetch the snapshot,
// compute decisions in memory, write them back one record at a time.
// Fetch errors are fatal to the task; write errors are collected per
// record and never abort the batch.
package tasks

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackwharrison/krcs-bitrix/internal/config"
	"github.com/jackwharrison/krcs-bitrix/internal/i18n"
	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
	"github.com/jackwharrison/krcs-bitrix/pkg/logging"
)

// Failure records one rejected write.
type Failure struct {
	RecordID int64
	Err      error
}

// Summary is the explicit result of one task run. The remote store
// reflects whatever subset of writes succeeded; nothing is rolled back.
type Summary struct {
	Task      string
	Updated   int
	Skipped   int
	Deleted   int
	Failures  []Failure
	MergeRefs []string
}

// Failed returns the number of rejected writes.
func (s Summary) Failed() int {
	return len(s.Failures)
}

// Runner holds everything a task needs. Configuration is resolved once
// before the run and passed in; tasks read no ambient state.
type Runner struct {
	Client  *bitrix.Client
	Config  config.Config
	Printer *i18n.Printer
	Out     io.Writer
	// DryRun computes and reports every decision but skips all writes.
	DryRun bool
}

func (r *Runner) printf(key string, args ...any) {
	fmt.Fprintln(r.Out, r.Printer.T(key, args...))
}

// update performs one write, honoring dry-run, and folds the outcome into
// the summary.
func (r *Runner) update(ctx context.Context, summary *Summary, entityType bitrix.EntityTypeID, id int64, fields map[string]any) {
	if r.DryRun {
		summary.Updated++
		return
	}
	if err := r.Client.Update(ctx, entityType, id, fields); err != nil {
		logging.Err(err).Str("task", summary.Task).Int64("id", id).Msg("update failed")
		summary.Failures = append(summary.Failures, Failure{RecordID: id, Err: err})
		return
	}
	logging.Info().Str("task", summary.Task).Int64("id", id).Msg("updated record")
	summary.Updated++
}

// mergeRef builds the human-followed merge link for one duplicate group,
// member ids in canonical ascending order.
func mergeRef(portalURL string, entityType bitrix.EntityTypeID, members []int64) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(portalURL, "/"))
	b.WriteString(fmt.Sprintf("/crm/type/%d/merge/?", int64(entityType)))
	for i, id := range members {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString("id[]=")
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

func (r *Runner) printMergeRefs(summary *Summary) {
	if len(summary.MergeRefs) == 0 {
		return
	}
	r.printf("Merge references:")
	for _, ref := range summary.MergeRefs {
		fmt.Fprintln(r.Out, "  "+ref)
	}
}

func (r *Runner) noteDryRun() {
	if r.DryRun {
		r.printf("Dry run: no records were written.")
	}
}

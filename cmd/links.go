package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/desertthunder/ccm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LinksAudit reports client/contact pairs recorded on only one side.
func (r *Runner) LinksAudit(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	found, err := r.links.Audit(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if found == nil {
			found = []tasks.Asymmetry{}
		}
		return r.writeJSON(found, true)
	}

	if len(found) == 0 {
		return r.writePlain("✓ All links are symmetric\n")
	}

	r.writePlainHeader(fmt.Sprintf("Asymmetric links (%d)", len(found)))
	for _, a := range found {
		r.writePlain("  • %s\n", a)
	}
	return nil
}

// LinksRepair brings every asymmetric pair back into symmetry, streaming progress to the log.
func (r *Runner) LinksRepair(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.links.Repair(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(repairReport(result), true)
	}

	if result.Found == 0 {
		return r.writePlain("✓ All links are symmetric\n")
	}

	r.writePlain("✓ Repaired %d/%d pairs\n", len(result.Repaired), result.Found)
	for _, a := range result.Repaired {
		r.writePlain("  • %s\n", a)
	}
	if len(result.Failed) > 0 {
		r.writePlainln("Failed to repair %d pairs:", len(result.Failed))
		for _, f := range result.Failed {
			r.writePlain("  • %s: %v\n", f.Asymmetry, f.Err)
		}
		return fmt.Errorf("%d pairs could not be repaired", len(result.Failed))
	}
	return nil
}

type repairFailureJSON struct {
	tasks.Asymmetry
	Error string `json:"error"`
}

type repairReportJSON struct {
	Found    int                 `json:"found"`
	Repaired []tasks.Asymmetry   `json:"repaired"`
	Failed   []repairFailureJSON `json:"failed"`
}

func repairReport(result *tasks.RepairResult) repairReportJSON {
	report := repairReportJSON{
		Found:    result.Found,
		Repaired: append([]tasks.Asymmetry{}, result.Repaired...),
		Failed:   []repairFailureJSON{},
	}
	for _, f := range result.Failed {
		report.Failed = append(report.Failed, repairFailureJSON{Asymmetry: f.Asymmetry, Error: f.Err.Error()})
	}
	return report
}

// CounterShow prints the current value of a named counter.
func (r *Runner) CounterShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	if err := r.open(ctx); err != nil {
		return err
	}

	counter, err := r.store.Counters.Get(ctx, name)
	if errors.Is(err, shared.ErrNotFound) {
		counter = &models.Counter{Name: name}
	} else if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(counter, true)
	}
	return r.writePlain("%s = %d\n", counter.Name, counter.SequenceValue)
}

// CounterSet seeds a named counter; the next code drawn from it uses value+1.
func (r *Runner) CounterSet(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	raw, err := requireArg(cmd, "value")
	if err != nil {
		return err
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fmt.Errorf("%w: value must be a non-negative integer, got %q", shared.ErrInvalidArgument, raw)
	}

	if err := r.open(ctx); err != nil {
		return err
	}
	if err := r.store.Counters.Set(ctx, name, value); err != nil {
		return err
	}

	r.logger.Warn("counter reseeded", "name", name, "value", value)
	return r.writePlain("✓ %s set to %d\n", name, value)
}

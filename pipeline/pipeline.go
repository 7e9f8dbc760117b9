// Package pipeline runs an ordered list of stages, each of which declares the
// file it produces. A stage whose output exists is complete; that is the only
// bookkeeping there is.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/carbocation/geopipe"
)

type Stage struct {
	Name    string
	Aliases []string

	// Output is the file whose existence marks the stage as complete.
	Output string

	// Done names the state the run is in once Output exists.
	Done string

	Run func(ctx context.Context) error
}

func (s Stage) matches(name string) bool {
	if strings.EqualFold(s.Name, name) {
		return true
	}
	for _, alias := range s.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}

	return false
}

type Pipeline struct {
	Stages []Stage

	// Pending names the state before any stage has completed.
	Pending string
}

type StageReport struct {
	Name     string
	Skipped  bool
	Duration time.Duration
}

// Lookup returns the position of the stage called name (or one of its
// aliases).
func (p *Pipeline) Lookup(name string) (int, error) {
	for i, s := range p.Stages {
		if s.matches(name) {
			return i, nil
		}
	}

	names := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		names = append(names, s.Name)
	}

	return -1, fmt.Errorf("unknown task %q; expected one of %s", name, strings.Join(names, ", "))
}

// Plan returns the index of the first stage that must run to reach target,
// and target's own index. Walking back from target, the first stage with an
// existing output is where work resumes; stages before it are not inspected.
// If start > end, nothing needs to run.
func (p *Pipeline) Plan(target string) (start, end int, err error) {
	end, err = p.Lookup(target)
	if err != nil {
		return 0, 0, err
	}

	for i := end; i >= 0; i-- {
		done, err := geopipe.Exists(p.Stages[i].Output)
		if err != nil {
			return 0, 0, err
		}
		if done {
			return i + 1, end, nil
		}
	}

	return 0, end, nil
}

// Run brings target up to date, running only the stages after the last one
// whose output already exists. The first failure stops the run; outputs of
// stages that finished are left in place so the next run resumes after them.
func (p *Pipeline) Run(ctx context.Context, target string) ([]StageReport, error) {
	start, end, err := p.Plan(target)
	if err != nil {
		return nil, err
	}

	reports := make([]StageReport, 0, end+1)
	for i := 0; i <= end; i++ {
		stage := p.Stages[i]

		if i < start {
			log.Printf("[%s] complete (%s exists), skipping\n", stage.Name, p.Stages[start-1].Output)
			reports = append(reports, StageReport{Name: stage.Name, Skipped: true})
			continue
		}

		if err := ctx.Err(); err != nil {
			return reports, err
		}

		log.Printf("[%s] running\n", stage.Name)
		started := time.Now()

		if err := stage.Run(ctx); err != nil {
			return reports, fmt.Errorf("%s: %w", stage.Name, err)
		}

		if done, err := geopipe.Exists(stage.Output); err != nil {
			return reports, fmt.Errorf("%s: %w", stage.Name, err)
		} else if !done {
			return reports, fmt.Errorf("%s: finished without producing %s", stage.Name, stage.Output)
		}

		reports = append(reports, StageReport{Name: stage.Name, Duration: time.Since(started)})
		log.Printf("[%s] done in %s\n", stage.Name, time.Since(started))
	}

	return reports, nil
}

// State names the furthest stage whose output exists.
func (p *Pipeline) State() (string, error) {
	for i := len(p.Stages) - 1; i >= 0; i-- {
		done, err := geopipe.Exists(p.Stages[i].Output)
		if err != nil {
			return "", err
		}
		if done {
			return p.Stages[i].Done, nil
		}
	}

	return p.Pending, nil
}

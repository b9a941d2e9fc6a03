package pipeline

import (
	"errors"
	"fmt"

	"github.com/san-kum/fepipe/internal/deck"
)

var (
	// ErrNotSolid indicates the geometry produced only a surface mesh, so no
	// solid deck can be written.
	ErrNotSolid = deck.ErrNotSolid

	// ErrNoMesher indicates a STEP source with no external mesher configured.
	ErrNoMesher = errors.New("pipeline: no mesher configured for file geometry")

	// ErrNoSolver indicates a solve was requested with no solver configured.
	ErrNoSolver = errors.New("pipeline: no solver configured")
)

// Step names a stage of a pipeline run.
type Step string

const (
	StepLoad     Step = "load"
	StepGeometry Step = "geometry"
	StepExport   Step = "export"
	StepDeck     Step = "deck"
	StepSolve    Step = "solve"
	StepResults  Step = "results"
)

// StepError wraps an error with the stage that produced it.
type StepError struct {
	Step    Step
	Job     string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// FailedStep reports the stage at which err occurred, if it came from a run.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

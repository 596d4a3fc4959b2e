// Package transform implements document steps, their position maps, and a
// Transform builder that applies steps eagerly.
package transform

import (
	"errors"
	"fmt"

	"github.com/iw2rmb/quire/model"
)

// ErrStepFailed wraps every error returned from Step.Apply.
var ErrStepFailed = errors.New("step failed")

// Step is an atomic document change. It only applies to the document it was
// built for, since its positions refer to that document.
type Step interface {
	// Apply returns the transformed document or an error wrapping
	// ErrStepFailed.
	Apply(doc *model.Node) (*model.Node, error)
	// GetMap returns the position changes the step makes.
	GetMap() StepMap
	// Invert returns the step that undoes this one. doc is the document
	// before the step.
	Invert(doc *model.Node) Step
	// Map adjusts the step's positions through m. It returns nil when the
	// step's target was deleted.
	Map(m Mappable) Step
	// Merge combines the step with one applied directly after it.
	Merge(other Step) (Step, bool)
}

func failed(err error) error {
	return fmt.Errorf("%w: %w", ErrStepFailed, err)
}

// ReplaceStep replaces [From, To) with Slice.
type ReplaceStep struct {
	From, To int
	Slice    model.Slice
}

func NewReplaceStep(from, to int, slice model.Slice) *ReplaceStep {
	return &ReplaceStep{From: from, To: to, Slice: slice}
}

func (s *ReplaceStep) Apply(doc *model.Node) (*model.Node, error) {
	out, err := doc.Replace(s.From, s.To, s.Slice)
	if err != nil {
		return nil, failed(err)
	}
	return out, nil
}

func (s *ReplaceStep) GetMap() StepMap {
	return NewStepMap(s.From, s.To-s.From, s.Slice.Size())
}

func (s *ReplaceStep) Invert(doc *model.Node) Step {
	sl, err := doc.Slice(s.From, s.To)
	if err != nil {
		return nil
	}
	return NewReplaceStep(s.From, s.From+s.Slice.Size(), sl)
}

func (s *ReplaceStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if from.DeletedAcross && to.DeletedAcross {
		return nil
	}
	return NewReplaceStep(from.Pos, max(from.Pos, to.Pos), s.Slice)
}

// Merge joins adjacent typing or deletion into one step.
func (s *ReplaceStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*ReplaceStep)
	if !ok {
		return nil, false
	}
	switch {
	case s.From+s.Slice.Size() == o.From && s.Slice.OpenEnd == 0 && o.Slice.OpenStart == 0:
		slice := model.EmptySlice
		if s.Slice.Size()+o.Slice.Size() > 0 {
			slice = model.NewSlice(s.Slice.Content.Append(o.Slice.Content), s.Slice.OpenStart, o.Slice.OpenEnd)
		}
		return NewReplaceStep(s.From, s.To+(o.To-o.From), slice), true
	case o.To == s.From && s.Slice.OpenStart == 0 && o.Slice.OpenEnd == 0:
		slice := model.EmptySlice
		if s.Slice.Size()+o.Slice.Size() > 0 {
			slice = model.NewSlice(o.Slice.Content.Append(s.Slice.Content), o.Slice.OpenStart, s.Slice.OpenEnd)
		}
		return NewReplaceStep(o.From, s.To, slice), true
	}
	return nil, false
}

func (s *ReplaceStep) String() string {
	return fmt.Sprintf("replace(%d,%d,%s)", s.From, s.To, s.Slice)
}

// Package admission implements the submission pipeline: validate the fields,
// check the session code, claim a capacity slot, commit the record. Every
// attempt resolves to an explicit outcome; nothing in this package panics or
// lets a bad request escape as an error.
package admission

import (
	"context"
	"errors"
	"log"

	"presenz/pkg/interfaces"
	"presenz/pkg/types"
)

// Pipeline ties the session manager's admission gate to the durable store.
type Pipeline struct {
	sessions interfaces.SessionController
	store    interfaces.AttendanceStore
}

// NewPipeline creates a submission pipeline.
func NewPipeline(sessions interfaces.SessionController, store interfaces.AttendanceStore) *Pipeline {
	return &Pipeline{sessions: sessions, store: store}
}

// Submit processes one attendance submission end to end.
//
// The slot is reserved before the durable write and released if the write
// fails, so the committed record count can never exceed capacity. Duplicate
// rolls are probed read-side first so that a re-submitted roll on a full
// session still reports duplicate rather than closed; the store's UNIQUE
// constraint remains the authority when two identical rolls race.
func (p *Pipeline) Submit(ctx context.Context, sub types.Submission) types.AdmissionResult {
	name, err := types.ValidateName(sub.Name)
	if err != nil {
		return types.AdmissionResult{Outcome: types.OutcomeInvalid, Reason: err.Error()}
	}
	roll, err := types.ValidateRoll(sub.Roll)
	if err != nil {
		return types.AdmissionResult{Outcome: types.OutcomeInvalid, Reason: err.Error()}
	}

	if !p.sessions.ValidateCode(types.SanitizeCode(sub.SessionCode)) {
		return types.AdmissionResult{Outcome: types.OutcomeInvalid, Reason: types.ErrInvalidSessionCode.Error()}
	}

	table := p.sessions.TableName()

	exists, err := p.store.HasRoll(ctx, table, roll)
	if err != nil {
		log.Printf("Submission failed, roll probe error: %v", err)
		return types.AdmissionResult{Outcome: types.OutcomeInternalError}
	}
	if exists {
		return types.AdmissionResult{Outcome: types.OutcomeDuplicate}
	}

	if err := p.sessions.Reserve(); err != nil {
		return types.AdmissionResult{Outcome: types.OutcomeClosed}
	}

	if err := p.store.InsertAttendance(ctx, table, name, roll); err != nil {
		p.sessions.Release()
		if errors.Is(err, types.ErrDuplicateRoll) {
			return types.AdmissionResult{Outcome: types.OutcomeDuplicate}
		}
		log.Printf("Submission failed, store error: %v", err)
		return types.AdmissionResult{Outcome: types.OutcomeInternalError}
	}

	return types.AdmissionResult{Outcome: types.OutcomeAccepted}
}

package codeintel

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/srcview/internal/debuglog"
)

// ErrNoRecord is returned when a delete is requested before an index record
// has been loaded without error.
var ErrNoRecord = errors.New("no index record loaded")

// DeletionPhase is the step a delete action has reached.
type DeletionPhase int

const (
	DeletionIdle DeletionPhase = iota
	DeletionLoading
	DeletionDeleted
	DeletionFailed
)

func (p DeletionPhase) String() string {
	switch p {
	case DeletionIdle:
		return "idle"
	case DeletionLoading:
		return "loading"
	case DeletionDeleted:
		return "deleted"
	case DeletionFailed:
		return "error"
	default:
		return "unknown"
	}
}

// Deletion is the local state of a delete action. Err is set only in the
// failed phase.
type Deletion struct {
	Phase DeletionPhase
	Err   error
}

func (d Deletion) Loading() bool { return d.Phase == DeletionLoading }
func (d Deletion) Deleted() bool { return d.Phase == DeletionDeleted }
func (d Deletion) Failed() bool  { return d.Phase == DeletionFailed }

// Confirmer asks the user a yes/no question.
type Confirmer func(message string) bool

// ConfirmDeleteMessage builds the prompt shown before deleting idx.
func ConfirmDeleteMessage(idx *Index) string {
	return fmt.Sprintf("Delete auto-index record for commit %s?", ShortCommit(idx.InputCommit))
}

// Delete runs the confirm and delete sequence for idx. A declined
// confirmation returns the unchanged idle state without contacting the
// service. onChange, when set, observes the loading phase before the remote
// call is made.
func Delete(ctx context.Context, svc Service, idx *Index, confirm Confirmer, onChange func(Deletion)) (Deletion, error) {
	if idx == nil {
		return Deletion{}, ErrNoRecord
	}
	if confirm != nil && !confirm(ConfirmDeleteMessage(idx)) {
		debuglog.Debugf("delete of index %s declined", idx.ID)
		return Deletion{}, nil
	}

	if onChange != nil {
		onChange(Deletion{Phase: DeletionLoading})
	}

	if err := svc.DeleteIndex(ctx, idx.ID); err != nil {
		debuglog.Errorf("delete of index %s failed: %v", idx.ID, err)
		return Deletion{Phase: DeletionFailed, Err: err}, nil
	}
	return Deletion{Phase: DeletionDeleted}, nil
}

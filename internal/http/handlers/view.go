package handlers

import (
	"endorsement/internal/batch"
	"endorsement/internal/domain"
)

type taskView struct {
	Index int         `json:"index"`
	State batch.State `json:"state"`
	Src   *string     `json:"src"`
}

type snapshotView struct {
	ID          string     `json:"id"`
	Done        bool       `json:"done"`
	HasFailures bool       `json:"has_failures"`
	Message     string     `json:"message"`
	Tasks       []taskView `json:"tasks"`
}

// newSnapshotView renders s for clients. src is null until a task succeeded
// and the generic failure message appears only once the batch is done.
func newSnapshotView(s batch.Snapshot, locale string) snapshotView {
	v := snapshotView{
		ID:          s.ID,
		Done:        s.Done,
		HasFailures: s.HasFailures(),
		Tasks:       make([]taskView, len(s.Tasks)),
	}
	for i, t := range s.Tasks {
		tv := taskView{Index: t.Index, State: t.State}
		if t.State == batch.StateSucceeded && t.Src != "" {
			src := t.Src
			tv.Src = &src
		}
		v.Tasks[i] = tv
	}
	if s.Done && v.HasFailures {
		v.Message = domain.Message(domain.MsgPartialFailure, locale)
	}
	return v
}

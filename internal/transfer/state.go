package transfer

import (
	"sync"
	"time"
)

// Operation is what the transporter is doing right now.
type Operation string

const (
	OperationIdle            Operation = "IDLE"
	OperationDashcamTransfer Operation = "DASHCAMTRANSFER"
	OperationHomeTransfer    Operation = "HOMETRANSFER"
)

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	DashcamDone bool      `json:"dashcam_done"`
	HomeDone    bool      `json:"home_done"`
	Operation   Operation `json:"operation"`
	LastError   string    `json:"last_error,omitempty"`
	LastPassAt  time.Time `json:"last_pass_at,omitempty"`
}

// State holds the two completion flags that gate re-entry into each pass. It
// lives for the process only; the staging directory is the durable record.
// Observers run synchronously on every change.
type State struct {
	mu        sync.Mutex
	snap      Snapshot
	observers []func(Snapshot)
}

// NewState returns a state with both flags false and the operation idle.
func NewState() *State {
	return &State{snap: Snapshot{Operation: OperationIdle}}
}

// Observe registers fn to receive every subsequent change.
func (s *State) Observe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *State) DashcamDone() bool { return s.Snapshot().DashcamDone }

func (s *State) HomeDone() bool { return s.Snapshot().HomeDone }

// SetDashcamDone sets the download flag. Setting it true returns to idle.
func (s *State) SetDashcamDone(done bool) {
	s.update(func(snap *Snapshot) {
		snap.DashcamDone = done
		if done {
			snap.Operation = OperationIdle
		}
	})
}

// SetHomeDone sets the upload flag. Setting it true returns to idle.
func (s *State) SetHomeDone(done bool) {
	s.update(func(snap *Snapshot) {
		snap.HomeDone = done
		if done {
			snap.Operation = OperationIdle
		}
	})
}

// beginDownload resets the upload flag and marks the download pass active.
func (s *State) beginDownload() {
	s.update(func(snap *Snapshot) {
		snap.HomeDone = false
		snap.Operation = OperationDashcamTransfer
	})
}

// beginUpload resets the download flag and marks the upload pass active.
func (s *State) beginUpload() {
	s.update(func(snap *Snapshot) {
		snap.DashcamDone = false
		snap.Operation = OperationHomeTransfer
	})
}

// finishPass records the outcome of a pass and returns to idle.
func (s *State) finishPass(at time.Time, err error) {
	s.update(func(snap *Snapshot) {
		snap.Operation = OperationIdle
		snap.LastPassAt = at
		if err != nil {
			snap.LastError = err.Error()
		} else {
			snap.LastError = ""
		}
	})
}

func (s *State) update(mutate func(*Snapshot)) {
	s.mu.Lock()
	before := s.snap
	mutate(&s.snap)
	after := s.snap
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range observers {
		fn(after)
	}
}

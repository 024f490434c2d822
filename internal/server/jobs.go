package server

import (
	"sync"
	"time"

	"github.com/sells-group/rfp-cli/internal/session"
)

// JobStatus is the state of a background analysis.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobFailed  JobStatus = "failed"
	JobReady   JobStatus = "ready"
)

// Job is a snapshot of one background analysis.
type Job struct {
	Session session.Session
	Status  JobStatus
	Result  *session.Result
	Err     error
	Started time.Time

	cleanupArmed bool
}

// Tracker holds background analyses by session token.
type Tracker struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Start registers a running job. It reports false when the session already
// has a running job.
func (t *Tracker) Start(s session.Session, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[s.ID]; ok && j.Status == JobRunning {
		return false
	}
	t.jobs[s.ID] = &Job{Session: s, Status: JobRunning, Started: now}
	return true
}

// Finish records the outcome of a job.
func (t *Tracker) Finish(id string, res *session.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return
	}
	if err != nil {
		j.Status, j.Err = JobFailed, err
		return
	}
	j.Status, j.Result = JobReady, res
}

// Get returns a copy of the job for id.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// ArmCleanup reports true the first time it is called for a ready job.
func (t *Tracker) ArmCleanup(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok || j.Status != JobReady || j.cleanupArmed {
		return false
	}
	j.cleanupArmed = true
	return true
}

// Remove forgets a job.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

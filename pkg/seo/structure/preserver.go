package structure

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"

	"github.com/google/uuid"
)

const logModule = "STRUCTURE"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is an immutable copy of a document plus its fingerprint.
type Snapshot struct {
	ID          string       `json:"id"`
	Document    seo.Document `json:"document"`
	Fingerprint Fingerprint  `json:"fingerprint"`
	Checksum    string       `json:"checksum"`
	Label       string       `json:"label"`
	PassNumber  int          `json:"pass_number"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Preserver is session scoped. Snapshots live in a ring buffer of at
// most limit entries; the oldest is evicted first.
type Preserver struct {
	mu                 sync.Mutex
	limit              int
	paragraphTolerance float64
	snapshots          []Snapshot
	logger             logger.ILogger
	now                func() time.Time
}

func NewPreserver(limit int, paragraphTolerance float64, log logger.ILogger) *Preserver {
	if limit < 1 {
		limit = 10
	}
	return &Preserver{
		limit:              limit,
		paragraphTolerance: paragraphTolerance,
		logger:             log,
		now:                time.Now,
	}
}

// Snapshot records doc under label.
func (p *Preserver) Snapshot(doc seo.Document, label string, pass int) (Snapshot, error) {
	fp, err := Take(doc)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		ID:          uuid.NewString(),
		Document:    doc.Clone(),
		Fingerprint: fp,
		Checksum:    Checksum(doc),
		Label:       label,
		PassNumber:  pass,
		Timestamp:   p.now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
	if over := len(p.snapshots) - p.limit; over > 0 {
		p.snapshots = append([]Snapshot(nil), p.snapshots[over:]...)
	}
	return s, nil
}

// Validate compares after against the snapshot it was derived from.
func (p *Preserver) Validate(before Snapshot, after seo.Document) (Report, error) {
	fp, err := Take(after)
	if err != nil {
		return Report{}, err
	}
	r := Compare(before.Fingerprint, fp, before.Document.Title, after.Title, p.paragraphTolerance)
	if len(r.Violations) > 0 {
		p.logger.Warn(logModule, "Structure violations detected", map[string]interface{}{
			"snapshot":   before.ID,
			"major":      r.HasMajor(),
			"violations": len(r.Violations),
		})
	}
	return r, nil
}

// Guard validates after and, on a major violation, returns the snapshot
// document instead. The boolean reports whether a rollback happened.
func (p *Preserver) Guard(before Snapshot, after seo.Document) (seo.Document, Report, bool, error) {
	r, err := p.Validate(before, after)
	if err != nil {
		return before.Document.Clone(), r, true, err
	}
	if r.HasMajor() {
		doc, err := p.Rollback(before.ID)
		if err != nil {
			// Evicted between snapshot and guard; the caller's copy is
			// still the rollback target.
			doc = before.Document.Clone()
		}
		return doc, r, true, nil
	}
	return after, r, false, nil
}

// Rollback returns a copy of the snapshot's document after checking it
// was not corrupted in storage.
func (p *Preserver) Rollback(id string) (seo.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.snapshots {
		if s.ID != id {
			continue
		}
		if DetectCorruption(s.Document, s.Checksum) {
			return seo.Document{}, fmt.Errorf("snapshot %s is corrupted", id)
		}
		p.logger.Info(logModule, "Rolled back to snapshot", map[string]interface{}{"snapshot": id, "label": s.Label})
		return s.Document.Clone(), nil
	}
	return seo.Document{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
}

// Get returns a stored snapshot.
func (p *Preserver) Get(id string) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.snapshots {
		if s.ID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Snapshots returns the retained snapshots, oldest first.
func (p *Preserver) Snapshots() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Snapshot(nil), p.snapshots...)
}

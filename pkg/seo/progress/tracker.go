// Package progress records the passes of one optimization session and
// reports on them.
package progress

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"content-optimizer-be/pkg/seo"
)

var (
	ErrSessionEnded  = errors.New("session already ended")
	ErrNoBaseline    = errors.New("baseline not recorded")
	ErrPassNotFound  = errors.New("pass not found")
	ErrBaselineTwice = errors.New("baseline already recorded")
)

// StrategyBaseline labels record 0.
const StrategyBaseline = "baseline"

type Improvements struct {
	ResolvedIssueTypes   []seo.IssueType `json:"resolved_issue_types"`
	NewIssueTypes        []seo.IssueType `json:"new_issue_types"`
	PersistentIssueTypes []seo.IssueType `json:"persistent_issue_types"`
}

// PassRecord is append-only. Record 0 is the baseline.
type PassRecord struct {
	PassNumber        int          `json:"pass_number"`
	BeforeScore       float64      `json:"before_score"`
	AfterScore        float64      `json:"after_score"`
	ScoreImprovement  float64      `json:"score_improvement"`
	IssuesBefore      int          `json:"issues_before"`
	IssuesAfter       int          `json:"issues_after"`
	IssuesResolved    int          `json:"issues_resolved"`
	Corrections       []string     `json:"corrections"`
	FailedCorrections []string     `json:"failed_corrections"`
	Strategy          string       `json:"strategy"`
	Improvements      Improvements `json:"improvements"`
	Reverted          bool         `json:"reverted"`
	RevertReason      string       `json:"revert_reason,omitempty"`
	Degraded          bool         `json:"degraded"`
	SuccessRate       float64      `json:"success_rate"` // % of the pass's corrections kept
	SnapshotID        string       `json:"snapshot_id,omitempty"`
	DurationMs        int64        `json:"duration_ms"`
	Timestamp         time.Time    `json:"timestamp"`

	before seo.Document
	after  seo.Document
}

// Session is terminal once End has been called.
type Session struct {
	SessionID         string    `json:"session_id"`
	InitialScore      float64   `json:"initial_score"`
	FinalScore        float64   `json:"final_score"`
	TotalPasses       int       `json:"total_passes"`
	TerminationReason string    `json:"termination_reason"`
	DurationMs        int64     `json:"duration_ms"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at,omitempty"`
	Ended             bool      `json:"ended"`
}

// PassInput is what the optimizer knows at the end of a pass.
type PassInput struct {
	Before            *seo.ValidationResult
	After             *seo.ValidationResult
	BeforeDoc         seo.Document
	AfterDoc          seo.Document
	Corrections       []string
	FailedCorrections []string
	Strategy          string
	Reverted          bool
	RevertReason      string
	Degraded          bool
	SuccessRate       float64
	SnapshotID        string
	Duration          time.Duration
}

// Tracker is session scoped and safe for concurrent reads.
type Tracker struct {
	mu      sync.RWMutex
	session Session
	passes  []PassRecord
	now     func() time.Time
}

// Start opens a tracker for a new session.
func Start(sessionID string) *Tracker {
	return startAt(sessionID, time.Now)
}

func startAt(sessionID string, now func() time.Time) *Tracker {
	return &Tracker{
		session: Session{SessionID: sessionID, StartedAt: now()},
		now:     now,
	}
}

func (t *Tracker) SessionID() string {
	return t.session.SessionID
}

// RecordBaseline stores record 0.
func (t *Tracker) RecordBaseline(r *seo.ValidationResult, doc seo.Document, snapshotID string) (PassRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.Ended {
		return PassRecord{}, ErrSessionEnded
	}
	if len(t.passes) > 0 {
		return PassRecord{}, ErrBaselineTwice
	}
	rec := PassRecord{
		PassNumber:        0,
		BeforeScore:       r.ComplianceScore,
		AfterScore:        r.ComplianceScore,
		IssuesBefore:      r.TotalIssues,
		IssuesAfter:       r.TotalIssues,
		Corrections:       []string{},
		FailedCorrections: []string{},
		Strategy:          StrategyBaseline,
		Improvements:      Improvements{PersistentIssueTypes: uniqueTypes(r.Issues)},
		SuccessRate:       100,
		SnapshotID:        snapshotID,
		Timestamp:         t.now(),
		before:            doc.Clone(),
		after:             doc.Clone(),
	}
	t.passes = append(t.passes, rec)
	t.session.InitialScore = r.ComplianceScore
	t.session.FinalScore = r.ComplianceScore
	return rec, nil
}

// RecordPass appends the next pass record.
func (t *Tracker) RecordPass(in PassInput) (PassRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.Ended {
		return PassRecord{}, ErrSessionEnded
	}
	if len(t.passes) == 0 {
		return PassRecord{}, ErrNoBaseline
	}
	if in.Before == nil || in.After == nil {
		return PassRecord{}, fmt.Errorf("pass %d: before and after results are required", len(t.passes))
	}

	rec := PassRecord{
		PassNumber:        len(t.passes),
		BeforeScore:       in.Before.ComplianceScore,
		AfterScore:        in.After.ComplianceScore,
		ScoreImprovement:  round2(in.After.ComplianceScore - in.Before.ComplianceScore),
		IssuesBefore:      len(in.Before.Issues),
		IssuesAfter:       len(in.After.Issues),
		IssuesResolved:    len(in.Before.Issues) - len(in.After.Issues),
		Corrections:       nonNil(in.Corrections),
		FailedCorrections: nonNil(in.FailedCorrections),
		Strategy:          in.Strategy,
		Improvements:      diff(in.Before.Issues, in.After.Issues),
		Reverted:          in.Reverted,
		RevertReason:      in.RevertReason,
		Degraded:          in.Degraded,
		SuccessRate:       round2(in.SuccessRate),
		SnapshotID:        in.SnapshotID,
		DurationMs:        in.Duration.Milliseconds(),
		Timestamp:         t.now(),
		before:            in.BeforeDoc.Clone(),
		after:             in.AfterDoc.Clone(),
	}
	t.passes = append(t.passes, rec)
	t.session.TotalPasses = rec.PassNumber
	t.session.FinalScore = rec.AfterScore
	return rec, nil
}

// RollbackTo returns the document as it stood at the end of pass n; pass
// 0 is the baseline input.
func (t *Tracker) RollbackTo(n int) (seo.Document, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n < 0 || n >= len(t.passes) {
		return seo.Document{}, fmt.Errorf("%w: %d", ErrPassNotFound, n)
	}
	return t.passes[n].after.Clone(), nil
}

// Best returns the highest-scoring document recorded so far. Ties go to
// the earlier pass.
func (t *Tracker) Best() (seo.Document, PassRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.passes) == 0 {
		return seo.Document{}, PassRecord{}, false
	}
	best := 0
	for i, p := range t.passes {
		if p.AfterScore > t.passes[best].AfterScore {
			best = i
		}
	}
	return t.passes[best].after.Clone(), t.passes[best], true
}

// Passes returns a copy of every record, baseline first.
func (t *Tracker) Passes() []PassRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]PassRecord(nil), t.passes...)
}

// End closes the session. finalScore is the score of the document the
// optimizer returns, which may differ from the last pass.
func (t *Tracker) End(reason string, finalScore float64) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.Ended {
		return t.session, ErrSessionEnded
	}
	t.session.Ended = true
	t.session.EndedAt = t.now()
	t.session.TerminationReason = reason
	t.session.FinalScore = finalScore
	t.session.DurationMs = t.session.EndedAt.Sub(t.session.StartedAt).Milliseconds()
	return t.session, nil
}

func (t *Tracker) Session() Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}

func diff(before, after []seo.Issue) Improvements {
	b := make(map[seo.IssueType]bool)
	for _, is := range before {
		b[is.Type] = true
	}
	a := make(map[seo.IssueType]bool)
	for _, is := range after {
		a[is.Type] = true
	}
	imp := Improvements{
		ResolvedIssueTypes:   []seo.IssueType{},
		NewIssueTypes:        []seo.IssueType{},
		PersistentIssueTypes: []seo.IssueType{},
	}
	for _, t := range uniqueTypes(before) {
		if a[t] {
			imp.PersistentIssueTypes = append(imp.PersistentIssueTypes, t)
		} else {
			imp.ResolvedIssueTypes = append(imp.ResolvedIssueTypes, t)
		}
	}
	for _, t := range uniqueTypes(after) {
		if !b[t] {
			imp.NewIssueTypes = append(imp.NewIssueTypes, t)
		}
	}
	return imp
}

func uniqueTypes(issues []seo.Issue) []seo.IssueType {
	seen := make(map[seo.IssueType]bool, len(issues))
	out := []seo.IssueType{}
	for _, is := range issues {
		if !seen[is.Type] {
			seen[is.Type] = true
			out = append(out, is.Type)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

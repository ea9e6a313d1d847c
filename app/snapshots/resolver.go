// Package snapshots resolves which version of a pupil's class, section and
// admission details applies to a term: live data while the term is open, the
// frozen snapshot once it has closed.
package snapshots

import (
	"context"
	"log"
	"time"

	"trinity-schools/app/models"
)

// Source tells callers where resolved attributes came from.
type Source string

const (
	// SourceLive means the term is still open and current pupil data applies.
	SourceLive Source = "live"
	// SourceSnapshot means the term is closed and a frozen snapshot was found.
	SourceSnapshot Source = "snapshot"
	// SourceFallbackLive means the term is closed but no snapshot could be
	// read, so current pupil data was used instead.
	SourceFallbackLive Source = "fallback_live"
)

// Attributes are the pupil fields that change over time and matter for fees,
// requirements and certificates.
type Attributes struct {
	ClassID         string            `json:"class_id"`
	Section         models.Section    `json:"section"`
	AdmissionNumber string            `json:"admission_number"`
	DateOfBirth     models.CustomTime `json:"date_of_birth"`
}

// Resolution is the outcome of resolving a pupil's attributes for a term.
type Resolution struct {
	Attributes
	Source Source `json:"source"`
}

// Store reads frozen snapshots. It returns (nil, nil) when no snapshot exists.
type Store interface {
	GetPupilTermSnapshot(ctx context.Context, pupilID, termID string) (*models.PupilTermSnapshot, error)
}

// Resolver picks live or frozen pupil attributes for a term.
type Resolver struct {
	store Store
	now   func() time.Time
}

// NewResolver creates a Resolver reading snapshots from store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// WithClock replaces the resolver's clock. Used by tests and batch replays.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

func liveAttributes(p *models.Pupil) Attributes {
	return Attributes{
		ClassID:         p.ClassID,
		Section:         p.Section.OrDefault(),
		AdmissionNumber: p.AdmissionNumber,
		DateOfBirth:     p.DateOfBirth,
	}
}

// GetHistoricalPupilDataForTerm resolves the pupil's attributes for termID.
// It returns nil only when the term does not belong to year. Snapshot store
// failures are logged and degrade to live data.
func (r *Resolver) GetHistoricalPupilDataForTerm(ctx context.Context, pupil *models.Pupil, termID string, year *models.AcademicYear) *Resolution {
	term := year.FindTerm(termID)
	if term == nil {
		return nil
	}

	if !term.HasEnded(r.now()) {
		return &Resolution{Attributes: liveAttributes(pupil), Source: SourceLive}
	}

	if r.store != nil {
		snap, err := r.store.GetPupilTermSnapshot(ctx, pupil.ID, termID)
		if err != nil {
			log.Printf("[SNAPSHOT] lookup failed for pupil %s term %s, using live data: %v", pupil.ID, termID, err)
		} else if snap != nil {
			return &Resolution{
				Attributes: Attributes{
					ClassID:         snap.ClassID,
					Section:         snap.Section.OrDefault(),
					AdmissionNumber: snap.AdmissionNumber,
					DateOfBirth:     snap.DateOfBirth,
				},
				Source: SourceSnapshot,
			}
		}
	}

	return &Resolution{Attributes: liveAttributes(pupil), Source: SourceFallbackLive}
}

// ProjectPupil returns a copy of pupil carrying the attributes that applied in
// termID. The original pupil is returned unchanged when the term is unknown.
func (r *Resolver) ProjectPupil(ctx context.Context, pupil *models.Pupil, termID string, year *models.AcademicYear) (*models.Pupil, *Resolution) {
	res := r.GetHistoricalPupilDataForTerm(ctx, pupil, termID, year)
	if res == nil {
		return pupil, nil
	}
	projected := *pupil
	projected.ClassID = res.ClassID
	projected.Section = res.Section
	projected.AdmissionNumber = res.AdmissionNumber
	projected.DateOfBirth = res.DateOfBirth
	return &projected, res
}

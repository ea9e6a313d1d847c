package fees

import (
	"log"
	"strings"
	"time"

	"trinity-schools/app/models"
)

// GroupKey identifies pupils that share the same base fee schedule.
type GroupKey struct {
	ClassID        string         `json:"class_id"`
	Section        models.Section `json:"section"`
	AcademicYearID string         `json:"academic_year_id"`
	TermID         string         `json:"term_id"`
}

// String renders the key as class|section|year|term for logs and responses.
func (k GroupKey) String() string {
	return strings.Join([]string{k.ClassID, string(k.Section), k.AcademicYearID, k.TermID}, "|")
}

// MatchesTerm compares the year and term fields exactly.
func (k GroupKey) MatchesTerm(academicYearID, termID string) bool {
	return k.AcademicYearID == academicYearID && k.TermID == termID
}

// KeyForPupil builds the group key of a pupil for a term.
func KeyForPupil(p *models.Pupil, academicYearID, termID string) GroupKey {
	return GroupKey{
		ClassID:        p.ClassID,
		Section:        p.Section.OrDefault(),
		AcademicYearID: academicYearID,
		TermID:         termID,
	}
}

// pupilTermKey scopes a pupil's group mapping to one academic year and term,
// so grouping the same pupil for another term never replaces it.
type pupilTermKey struct {
	PupilID        string
	AcademicYearID string
	TermID         string
}

type pupilMapping struct {
	key       GroupKey
	groupedAt time.Time
}

// PupilGroup is a set of pupils with identical fee-determining characteristics.
type PupilGroup struct {
	Key      GroupKey `json:"group_key"`
	PupilIDs []string `json:"pupil_ids"`
}

// GroupPupilsByFeeCharacteristics partitions pupils by class, section, year
// and term, and remembers each pupil's group for later fee composition.
func (c *Cache) GroupPupilsByFeeCharacteristics(pupils []*models.Pupil, academicYearID, termID string) map[GroupKey]*PupilGroup {
	groups := make(map[GroupKey]*PupilGroup)
	seen := make(map[string]bool, len(pupils))

	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range pupils {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		key := KeyForPupil(p, academicYearID, termID)
		group, ok := groups[key]
		if !ok {
			group = &PupilGroup{Key: key}
			groups[key] = group
		}
		group.PupilIDs = append(group.PupilIDs, p.ID)
		c.pupilGroups[pupilTermKey{PupilID: p.ID, AcademicYearID: academicYearID, TermID: termID}] = pupilMapping{key: key, groupedAt: now}
	}

	log.Printf("[FEE-CACHE] grouped %d pupils into %d fee groups", len(seen), len(groups))
	return groups
}

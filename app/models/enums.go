package models

// Section defines whether a pupil attends as a day scholar or a boarder.
type Section string

const (
	SectionDay      Section = "day"
	SectionBoarding Section = "boarding"
)

// OrDefault returns s, or SectionDay when s is empty.
func (s Section) OrDefault() Section {
	if s == "" {
		return SectionDay
	}
	return s
}

// PupilStatus defines the enrolment status of a pupil.
type PupilStatus string

const (
	PupilActive      PupilStatus = "Active"
	PupilInactive    PupilStatus = "Inactive"
	PupilGraduated   PupilStatus = "Graduated"
	PupilTransferred PupilStatus = "Transferred"
)

// Fee categories with special meaning to the fee engine.
const (
	CategoryDiscount = "Discount"
	CategoryTuition  = "Tuition"
)

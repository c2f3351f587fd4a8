package models

import "time"

// ProjectStatus represents the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusEnCours   ProjectStatus = "enCours"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusPaused    ProjectStatus = "paused"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusEnCours, ProjectStatusCompleted, ProjectStatusPaused:
		return true
	}
	return false
}

// Project is an NGO project run by exactly one chef de projet and funded by
// zero or more donors. Spent is floored by the sum of donor spent amounts;
// going over budget is a reportable state, not an error.
type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Status      ProjectStatus `gorm:"size:20;not null;default:'planning';index" json:"status"`
	StartDate   time.Time     `gorm:"not null" json:"startDate"`
	EndDate     *time.Time    `json:"endDate"`
	Budget      float64       `gorm:"not null" json:"budget"`
	Spent       float64       `gorm:"not null;default:0" json:"spent"`

	// AdminID is the admin who created the project. Nullable so that deleting
	// the admin account does not orphan the project.
	AdminID *uint `gorm:"index" json:"adminId"`

	// ChefProjectID is the owning chef de projet. Exactly one per project.
	ChefProjectID uint `gorm:"not null;index" json:"chefProjectId"`

	Donors     []DonorAllocation `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"donorAllocations,omitempty"`
	Indicators []Indicator       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"indicators,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DonorIDs returns the ids of all allocated donors, in allocation order.
func (p *Project) DonorIDs() []uint {
	ids := make([]uint, 0, len(p.Donors))
	for _, d := range p.Donors {
		ids = append(ids, d.UserID)
	}
	return ids
}

// HasDonor reports whether userID appears in the project's allocation set.
// A donor with no allocation row is not associated with the project.
func (p *Project) HasDonor(userID uint) bool {
	for _, d := range p.Donors {
		if d.UserID == userID {
			return true
		}
	}
	return false
}

// DonorSpentTotal sums the spent amounts attributed to donors. The project
// level Spent must never fall below this.
func (p *Project) DonorSpentTotal() float64 {
	var total float64
	for _, d := range p.Donors {
		total += d.SpentAmount
	}
	return total
}

// DonorCommittedTotal sums the committed amounts across all allocations.
func (p *Project) DonorCommittedTotal() float64 {
	var total float64
	for _, d := range p.Donors {
		total += d.CommittedAmount
	}
	return total
}

// DonorAllocation records a donor's committed and spent funding for one
// project. Table project_donors, composite primary key (project_id, user_id).
// Invariant: SpentAmount <= CommittedAmount, enforced by clamping on write.
type DonorAllocation struct {
	ProjectID       uint    `gorm:"primaryKey;autoIncrement:false" json:"projectId"`
	UserID          uint    `gorm:"primaryKey;autoIncrement:false;index" json:"donorId"`
	CommittedAmount float64 `gorm:"not null;default:0" json:"committedAmount"`
	SpentAmount     float64 `gorm:"not null;default:0" json:"spentAmount"`
}

// TableName keeps the legacy table name used by the original schema.
func (DonorAllocation) TableName() string { return "project_donors" }

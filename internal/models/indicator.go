package models

import "time"

// Indicator is a named, unit-bearing KPI tracked against a target value for
// one project. CurrentValue is a cache of the most recently accepted entry
// value; it is only ever written through the entry-append path, never by a
// direct field edit.
type Indicator struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	ProjectID    uint    `gorm:"not null;index" json:"projectId"`
	Name         string  `gorm:"size:255;not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description,omitempty"`
	TargetValue  float64 `gorm:"not null" json:"targetValue"`
	CurrentValue float64 `gorm:"not null" json:"currentValue"`
	Unit         string  `gorm:"size:50;not null" json:"unit"`

	Entries []IndicatorEntry `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Progress returns the completion percentage clamped to [0,100].
// A zero target means 100 once any value is recorded, 0 otherwise.
func (i *Indicator) Progress() float64 {
	if i.TargetValue == 0 {
		if i.CurrentValue > 0 {
			return 100
		}
		return 0
	}
	p := i.CurrentValue / i.TargetValue * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// IndicatorEntry is an immutable, timestamped observation of an indicator's
// value. Entries are append-only: correcting a mistake means submitting a new
// entry with a corrective value and an explanatory note.
type IndicatorEntry struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	IndicatorID uint    `gorm:"not null;index" json:"indicatorId"`
	Value       float64 `gorm:"not null" json:"value"`
	Notes       string  `gorm:"type:text" json:"notes,omitempty"`
	Evidence    string  `gorm:"type:text" json:"evidence,omitempty"`

	// CreatedBy is nullable so deleting a user keeps their entries.
	CreatedBy *uint     `gorm:"index" json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

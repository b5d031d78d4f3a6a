package models

// Business is one tenant in the multi-tenant data model (business_info relation).
type Business struct {
	ID           uint   `gorm:"column:business_id;primaryKey" json:"business_id"`
	Name         string `gorm:"not null" json:"name"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Address      string `gorm:"not null" json:"address"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Timestamps
}

func (Business) TableName() string { return "business_info" }

// Branch is a location under a business. Registration creates a default one.
type Branch struct {
	ID         uint   `gorm:"column:branch_id;primaryKey" json:"branch_id"`
	BusinessID uint   `gorm:"not null;index" json:"business_id"`
	BranchName string `gorm:"not null" json:"branch_name"`
	Address    string `json:"address"`
	Active     bool   `gorm:"not null" json:"active"`
	Timestamps
}

func (Branch) TableName() string { return "branches" }

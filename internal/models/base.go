package models

import "time"

// Timestamps contains the bookkeeping columns shared by the hosted relations.
// Primary keys are numeric and named per relation (user_id, business_id, ...),
// so they live on each model rather than here.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

// Condominium statuses
const (
	CondominiumActive    = "active"
	CondominiumSuspended = "suspended"
	CondominiumArchived  = "archived"
)

// Condominium is a tenant of the platform. Its user population lives in a
// dedicated Postgres schema named by SchemaName.
type Condominium struct {
	ID         string
	Slug       string
	Name       string
	Status     string
	SchemaName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOperational reports whether the condominium accepts logins.
func (c *Condominium) IsOperational() bool {
	return c.Status == CondominiumActive
}

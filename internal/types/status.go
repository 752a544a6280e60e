package types

// Status tracks the lifecycle of a persisted resource and determines whether
// it should be included in queries. Any changes to this type should be
// reflected in the database schema by running migrations.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

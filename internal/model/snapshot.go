package model

import (
	"encoding/json"
	"time"
)

// SnapshotType is the kind of change a snapshot records.
type SnapshotType string

const (
	SnapshotCreated  SnapshotType = "created"
	SnapshotModified SnapshotType = "modified"
	SnapshotDeleted  SnapshotType = "deleted"
	SnapshotReverted SnapshotType = "reverted"
)

// Valid reports whether t is one of the known snapshot types.
func (t SnapshotType) Valid() bool {
	switch t {
	case SnapshotCreated, SnapshotModified, SnapshotDeleted, SnapshotReverted:
		return true
	}
	return false
}

// EntityState is the state of an entity after a change. It is either
// Present or Absent; a nil EntityState means the state was never loaded.
type EntityState[T any] interface {
	isEntityState()
}

// Present is the state of an entity that exists.
type Present[T any] struct {
	Value T
}

// Absent is the state of an entity that does not exist.
type Absent[T any] struct{}

func (Present[T]) isEntityState() {}
func (Absent[T]) isEntityState()  {}

// StateValue unpacks a state. ok is false for Absent and nil states.
func StateValue[T any](s EntityState[T]) (value T, ok bool) {
	if p, isPresent := s.(Present[T]); isPresent {
		return p.Value, true
	}
	return value, false
}

// Snapshot is an immutable record of an entity's state after a change.
type Snapshot[T any] struct {
	ID          string
	TargetType  EntityType
	TargetID    string
	CommitterID string
	Time        time.Time
	Type        SnapshotType
	Reason      string
	State       EntityState[T]
}

type snapshotJSON[T any] struct {
	ID          string       `json:"id"`
	TargetType  EntityType   `json:"target_type"`
	TargetID    string       `json:"target_id"`
	CommitterID string       `json:"committer_id,omitempty"`
	Time        time.Time    `json:"time"`
	Type        SnapshotType `json:"type"`
	Reason      string       `json:"reason,omitempty"`
	Value       *T           `json:"value"`
}

// MarshalJSON encodes an Absent state as a null value.
func (s Snapshot[T]) MarshalJSON() ([]byte, error) {
	out := snapshotJSON[T]{
		ID:          s.ID,
		TargetType:  s.TargetType,
		TargetID:    s.TargetID,
		CommitterID: s.CommitterID,
		Time:        s.Time,
		Type:        s.Type,
		Reason:      s.Reason,
	}
	if v, ok := StateValue[T](s.State); ok {
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null value as an Absent state.
func (s *Snapshot[T]) UnmarshalJSON(data []byte) error {
	var in snapshotJSON[T]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Snapshot[T]{
		ID:          in.ID,
		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		CommitterID: in.CommitterID,
		Time:        in.Time,
		Type:        in.Type,
		Reason:      in.Reason,
		State:       Absent[T]{},
	}
	if in.Value != nil {
		s.State = Present[T]{Value: *in.Value}
	}
	return nil
}

// SnapshotRecord is the type-agnostic storage form of a snapshot.
// Value is nil when the recorded state is absent.
type SnapshotRecord struct {
	ID          string
	TargetType  EntityType
	TargetID    string
	CommitterID string
	Time        time.Time
	Type        SnapshotType
	Reason      string
	Value       json.RawMessage
}

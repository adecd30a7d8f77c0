package registry

import (
	"encoding/json"
	"time"

	"haven.io/server/internal/util"
)

// AuditAction classifies an audit entry.
type AuditAction string

const (
	// AuditAdd records creation of a registry row.
	AuditAdd AuditAction = "add"

	// AuditUpdate records modification of a registry row.
	AuditUpdate AuditAction = "update"

	// AuditDelete records deletion of a registry row.
	AuditDelete AuditAction = "delete"
)

// Audit entity kinds.
const (
	// AuditEntityNode marks entries describing ha_node rows.
	AuditEntityNode = "node"

	// AuditEntitySettings marks entries describing global settings.
	AuditEntitySettings = "settings"
)

// FieldChange records an old/new value pair for one audited field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuditEntry is one recorded registry mutation.
type AuditEntry struct {
	Action   AuditAction
	Entity   string
	EntityID string
	Name     string
	Changes  map[string]FieldChange
}

// AuditRecorder accumulates audit entries for the mutations performed
// inside one registry transaction.
//
// The recorder is transactional with the change it describes: Flush
// writes the entries through the store's open transaction so they
// commit or roll back together with the mutation. When auditing is
// disabled the recorder discards everything.
type AuditRecorder struct {
	enabled bool
	entries []*AuditEntry
}

// NewAuditRecorder creates a recorder for one transaction.
func NewAuditRecorder(enabled bool) *AuditRecorder {
	return &AuditRecorder{enabled: enabled}
}

// Append records a new entry and returns it for field changes.
func (r *AuditRecorder) Append(action AuditAction, entity, entityID, name string) *AuditEntry {
	entry := &AuditEntry{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Name:     name,
		Changes:  make(map[string]FieldChange),
	}
	if r.enabled {
		r.entries = append(r.entries, entry)
	}
	return entry
}

// Change records an old/new value pair on the entry.
func (e *AuditEntry) Change(field, old, new string) {
	e.Changes[field] = FieldChange{Old: old, New: new}
}

// Flush writes the accumulated entries through the store's open
// transaction and clears the recorder. When the registry is offline
// the entries are discarded without error; the surrounding transaction
// is gone anyway.
func (r *AuditRecorder) Flush(s *Store) error {
	entries := r.entries
	r.entries = nil

	if !r.enabled || len(entries) == 0 {
		return nil
	}
	if !s.InTx() {
		return nil
	}

	clock := time.Now().Unix()
	for _, e := range entries {
		details := ""
		if len(e.Changes) > 0 {
			raw, err := json.Marshal(e.Changes)
			if err != nil {
				return err
			}
			details = string(raw)
		}

		query := s.dialect.Rebind("insert into auditlog" +
			" (auditid,clock,action,entity,entityid,name,details) values (?,?,?,?,?,?,?)")
		if _, err := s.tx.Exec(query, util.NewID(), clock, string(e.Action), e.Entity,
			e.EntityID, e.Name, details); err != nil {
			return s.fault("audit_flush", err)
		}
	}

	return nil
}

// Clean discards all accumulated entries. Called when the surrounding
// transaction is rolled back.
func (r *AuditRecorder) Clean() {
	r.entries = nil
}

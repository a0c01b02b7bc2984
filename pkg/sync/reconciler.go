package sync

import (
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/mapping"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/subject"
)

// Kind enumerates the possible outcomes of reconciling one subject.
type Kind int

const (
	KindNoOp Kind = iota
	KindCreate
	KindUpdate
	KindDeactivate
)

func (k Kind) String() string {
	switch k {
	case KindNoOp:
		return "noop"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDeactivate:
		return "deactivate"
	default:
		return "unknown"
	}
}

// Decision is the minimal change set for one subject, produced by Reconcile
// and consumed by Executor. LockKey is the per-subject serialization key:
// the employee id when one exists, otherwise the normalized email.
type Decision struct {
	Kind       Kind
	EmployeeID string
	LockKey    string
	Payload    netsuite.EmployeePayload
}

// Deactivate builds the deactivation decision for an employee id.
func Deactivate(employeeID string) Decision {
	return Decision{Kind: KindDeactivate, EmployeeID: employeeID, LockKey: employeeID}
}

// Reconcile decides what, if anything, to change downstream for one subject.
//
// With no existing record the decision is a full create. With an existing
// record the diff covers subsidiary and title only; roles are merged
// additively — the existing role set is always a subset of the result, and a
// role implied only by an old mapping is never removed. A record that has
// been deactivated is terminal: the engine never re-activates it.
func Reconcile(sub subject.Canonical, attrs mapping.Attributes, existing *netsuite.Employee) Decision {
	if existing == nil {
		payload := netsuite.EmployeePayload{
			FirstName: sub.FirstName,
			LastName:  sub.LastName,
			Email:     sub.Email,
			Mobile:    sub.Mobile,
			Title:     sub.Title,
		}
		if attrs.SubsidiaryID != "" {
			payload.Subsidiary = &netsuite.SubsidiaryRef{ID: attrs.SubsidiaryID}
		}
		if len(attrs.RoleIDs) > 0 {
			payload.Roles = netsuite.NewRoleList(dedupe(attrs.RoleIDs))
		}
		return Decision{Kind: KindCreate, LockKey: subject.NormalizeEmail(sub.Email), Payload: payload}
	}

	if existing.Inactive {
		return Decision{Kind: KindNoOp, EmployeeID: existing.ID, LockKey: existing.ID}
	}

	var fields netsuite.EmployeePayload
	changed := false

	if attrs.SubsidiaryID != "" && existing.SubsidiaryID() != attrs.SubsidiaryID {
		fields.Subsidiary = &netsuite.SubsidiaryRef{ID: attrs.SubsidiaryID}
		changed = true
	}
	// An unset subject title means the field is unmanaged for this subject;
	// the engine never blanks a remote title.
	if sub.Title != "" && existing.Title != sub.Title {
		fields.Title = sub.Title
		changed = true
	}

	if merged, added := MergeRoles(existing.RoleIDs(), attrs.RoleIDs); added {
		fields.Roles = netsuite.NewRoleList(merged)
		changed = true
	}

	if !changed {
		return Decision{Kind: KindNoOp, EmployeeID: existing.ID, LockKey: existing.ID}
	}
	return Decision{Kind: KindUpdate, EmployeeID: existing.ID, LockKey: existing.ID, Payload: fields}
}

// MergeRoles unions mapped roles into the existing set, preserving existing
// order and deduplicating. Returns the merged set and whether anything new
// was actually added.
func MergeRoles(existing, mapped []string) ([]string, bool) {
	merged := make([]string, 0, len(existing)+len(mapped))
	seen := make(map[string]struct{}, len(existing)+len(mapped))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	added := false
	for _, id := range mapped {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
		added = true
	}
	return merged, added
}

func dedupe(ids []string) []string {
	out, _ := MergeRoles(nil, ids)
	return out
}

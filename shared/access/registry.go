// Package access provides the role registry for privileged identities.
package access

import (
	"sort"

	"github.com/rs/zerolog"
)

// Role of a privileged identity.
type Role string

const (
	RoleNone    Role = ""
	RoleManager Role = "manager"
	RoleSuper   Role = "super"
)

// Registry holds the two privileged sets. It is built once at startup and never mutated.
//
// Operational managers receive day-to-day alerts. Super roles hold approval rights but
// are left out of operational broadcasts unless no manager is configured.
type Registry struct {
	managers map[int64]struct{}
	supers   map[int64]struct{}
	logger   zerolog.Logger
}

// NewRegistry builds a registry. An id present in both lists counts as a manager.
func NewRegistry(managers, supers []int64, logger zerolog.Logger) *Registry {
	r := &Registry{
		managers: make(map[int64]struct{}, len(managers)),
		supers:   make(map[int64]struct{}, len(supers)),
		logger:   logger.With().Str("component", "access").Logger(),
	}
	for _, id := range managers {
		r.managers[id] = struct{}{}
	}
	for _, id := range supers {
		if _, ok := r.managers[id]; ok {
			continue
		}
		r.supers[id] = struct{}{}
	}
	r.logger.Info().
		Int("managers", len(r.managers)).
		Int("super_admins", len(r.supers)).
		Msg("role registry loaded")
	return r
}

// IsPrivileged reports whether id holds any privileged role.
func (r *Registry) IsPrivileged(id int64) bool {
	return r.RoleOf(id) != RoleNone
}

// RoleOf returns the role of id.
func (r *Registry) RoleOf(id int64) Role {
	if _, ok := r.managers[id]; ok {
		return RoleManager
	}
	if _, ok := r.supers[id]; ok {
		return RoleSuper
	}
	return RoleNone
}

// Operational returns the recipients of operational alerts.
func (r *Registry) Operational() []int64 {
	if len(r.managers) > 0 {
		return sortedIDs(r.managers)
	}
	return sortedIDs(r.supers)
}

// Privileged returns every privileged identity.
func (r *Registry) Privileged() []int64 {
	out := sortedIDs(r.managers)
	out = append(out, sortedIDs(r.supers)...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

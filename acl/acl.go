// Package acl expands access-control lists into the index entries they require.
package acl

import (
	"github.com/pkg/errors"

	"github.com/hummearth/hive"
)

// Role is an access-control role.
type Role int

// The roles, most privileged first.
const (
	Owner Role = iota + 1
	Admin
	Writer
	Reader
)

// Roles lists every Role in order.
var Roles = []Role{Owner, Admin, Writer, Reader}

func (r Role) String() string {
	switch r {
	case Owner:
		return "Owner"
	case Admin:
		return "Admin"
	case Writer:
		return "Writer"
	case Reader:
		return "Reader"
	}
	return "Role(?)"
}

// ParseRole parses the literal name of a role.
// Names are case-sensitive.
// Anything else is hive.ErrInvalidAclRole.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, errors.Wrapf(hive.ErrInvalidAclRole, "%q", s)
}

// Namespace is the index namespace holding r's entries.
func (r Role) Namespace() hive.Namespace {
	switch r {
	case Owner:
		return hive.Owner
	case Admin:
		return hive.Admin
	case Writer:
		return hive.Writer
	case Reader:
		return hive.Reader
	}
	return 0
}

// Grant is the set of entities holding one role.
type Grant struct {
	Role     Role
	Entities []hive.Entity
}

// Expand computes the effective membership of each role in a:
//
//	Owner  = {owner}
//	Admin  = admin
//	Writer = admin ∪ writer
//	Reader = admin ∪ writer ∪ reader
//
// Entities are deduplicated by ID within each role,
// keeping the first occurrence.
// The result always has one Grant per role, in Roles order.
func Expand(a hive.ACL) []Grant {
	writers := union(a.Admin, a.Writer)
	return []Grant{
		{Role: Owner, Entities: []hive.Entity{a.Owner}},
		{Role: Admin, Entities: union(a.Admin)},
		{Role: Writer, Entities: writers},
		{Role: Reader, Entities: union(writers, a.Reader)},
	}
}

func union(lists ...[]hive.Entity) []hive.Entity {
	var (
		out  []hive.Entity
		seen = make(map[string]bool)
	)
	for _, list := range lists {
		for _, e := range list {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}

// Key is the index path of entity's entry for content of the given hive and type.
// It is the same in every role namespace.
func Key(hiveID, contentType, entityID string) hive.Path {
	return hive.Path{hiveID, contentType, entityID}
}

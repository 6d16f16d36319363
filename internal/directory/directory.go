// Package directory resolves the reporting hierarchy of the user roster.
//
// The roster is a forest built from each user's reporter back-reference. It is
// not validated as acyclic, so every traversal carries a visited set.
package directory

import (
	"github.com/google/uuid"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// ManagerDepth is how many hierarchy levels a manager sees below themselves:
// their direct reportees and those reportees' own reportees. Deeper nesting
// is not traversed.
const ManagerDepth = 2

// Set is a set of user identifiers.
type Set map[uuid.UUID]struct{}

// Has reports whether id is in the set.
func (s Set) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Directory is an adjacency view of a roster snapshot.
type Directory struct {
	users    map[uuid.UUID]types.User
	children map[uuid.UUID][]uuid.UUID
}

// New indexes the roster. Users whose reporter does not resolve are kept as roots.
func New(roster []types.User) *Directory {
	d := &Directory{
		users:    make(map[uuid.UUID]types.User, len(roster)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, u := range roster {
		d.users[u.ID] = u
	}
	for _, u := range roster {
		if u.Reporter == nil {
			continue
		}
		d.children[*u.Reporter] = append(d.children[*u.Reporter], u.ID)
	}
	return d
}

// Exists reports whether id belongs to a user currently in the roster.
func (d *Directory) Exists(id uuid.UUID) bool {
	_, ok := d.users[id]
	return ok
}

// User returns the roster entry for id.
func (d *Directory) User(id uuid.UUID) (types.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// DepthFor returns how many levels of reportees a user of the given role sees.
func DepthFor(role types.Role) int {
	if role == types.RoleManager {
		return ManagerDepth
	}
	return 1
}

// ReporteesOf returns the reportees of id using the depth its role allows.
// Unknown users have no reportees.
func (d *Directory) ReporteesOf(id uuid.UUID) Set {
	u, ok := d.users[id]
	if !ok {
		return Set{}
	}
	return d.Reportees(id, DepthFor(u.Role))
}

// Reportees walks at most depth levels below id. The starting user is never
// part of the result, even when the reporter chain loops back to it.
func (d *Directory) Reportees(id uuid.UUID, depth int) Set {
	out := Set{}
	visited := map[uuid.UUID]bool{id: true}
	frontier := []uuid.UUID{id}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []uuid.UUID
		for _, parent := range frontier {
			for _, child := range d.children[parent] {
				if visited[child] {
					continue
				}
				visited[child] = true
				out[child] = struct{}{}
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}

// DirectReportees returns users whose reporter is id.
func (d *Directory) DirectReportees(id uuid.UUID) []types.User {
	ids := d.children[id]
	out := make([]types.User, 0, len(ids))
	for _, cid := range ids {
		if cid == id {
			continue
		}
		out = append(out, d.users[cid])
	}
	return out
}

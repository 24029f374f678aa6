package acl

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hummearth/hive"
)

func ids(es []hive.Entity) []string {
	var out []string
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}

func TestExpand(t *testing.T) {
	a := hive.ACL{
		Owner:  hive.Entity{ID: "O"},
		Admin:  []hive.Entity{{ID: "A"}},
		Writer: []hive.Entity{{ID: "B"}, {ID: "A"}},
		Reader: []hive.Entity{{ID: "C"}, {ID: "B"}},
	}
	got := make(map[Role][]string)
	for _, g := range Expand(a) {
		got[g.Role] = ids(g.Entities)
	}
	want := map[Role][]string{
		Owner:  {"O"},
		Admin:  {"A"},
		Writer: {"A", "B"},
		Reader: {"A", "B", "C"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandEmpty(t *testing.T) {
	grants := Expand(hive.ACL{Owner: hive.Entity{ID: "O"}})
	if len(grants) != len(Roles) {
		t.Fatalf("got %d grants, want %d", len(grants), len(Roles))
	}
	for i, g := range grants {
		if g.Role != Roles[i] {
			t.Errorf("grant %d is %s, want %s", i, g.Role, Roles[i])
		}
		if g.Role != Owner && len(g.Entities) != 0 {
			t.Errorf("%s has %v, want none", g.Role, ids(g.Entities))
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(r.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != r {
			t.Errorf("got %s, want %s", got, r)
		}
	}
	for _, s := range []string{"Manager", "owner", "", "READER"} {
		_, err := ParseRole(s)
		if !errors.Is(err, hive.ErrInvalidAclRole) {
			t.Errorf("ParseRole(%q): got %v, want ErrInvalidAclRole", s, err)
		}
	}
}

func TestNamespaces(t *testing.T) {
	seen := make(map[hive.Namespace]bool)
	for _, r := range Roles {
		ns := r.Namespace()
		if !ns.Valid() {
			t.Errorf("%s has invalid namespace %s", r, ns)
		}
		if seen[ns] {
			t.Errorf("%s shares namespace %s", r, ns)
		}
		seen[ns] = true
	}
}

package hive

import "fmt"

// Namespace identifies one index structure in the link graph.
// The set is closed:
// backends may rely on it not growing at runtime.
type Namespace int

// The index namespaces.
const (
	Author      Namespace = iota + 1 // [author, type] and [author]
	Hive                             // [hive, type]
	Owner                            // [hive, type, entity]
	Admin                            // [hive, type, entity]
	Writer                           // [hive, type, entity]
	Reader                           // [hive, type, entity]
	ContentID                        // [hive, id]
	DynamicLink                      // [hive, type, tag]
	Time                             // [author, type], tag is the timestamp
	Original                         // [original], the head pointer
)

// Namespaces lists every Namespace in order.
var Namespaces = []Namespace{
	Author, Hive, Owner, Admin, Writer, Reader, ContentID, DynamicLink, Time, Original,
}

var namespaceNames = map[Namespace]string{
	Author:      "author",
	Hive:        "hive",
	Owner:       "owner",
	Admin:       "admin",
	Writer:      "writer",
	Reader:      "reader",
	ContentID:   "content_id",
	DynamicLink: "dynamic_link",
	Time:        "time",
	Original:    "original",
}

func (ns Namespace) String() string {
	if s, ok := namespaceNames[ns]; ok {
		return s
	}
	return fmt.Sprintf("Namespace(%d)", int(ns))
}

// Valid tells whether ns is one of the known namespaces.
func (ns Namespace) Valid() bool {
	_, ok := namespaceNames[ns]
	return ok
}

// ParseNamespace is the inverse of Namespace.String.
func ParseNamespace(s string) (Namespace, error) {
	for ns, name := range namespaceNames {
		if name == s {
			return ns, nil
		}
	}
	return 0, fmt.Errorf("unknown namespace %q", s)
}

// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// GroupsTable represents the platform 'directory.groups' table.
//
// Read-only from this service, same as [UsersTable].
type GroupsTable struct {
	Table string
	ID    string
	Name  string
}

// Groups is the schema definition for directory.groups
var Groups = GroupsTable{
	Table: "directory.groups",
	ID:    "groupid",
	Name:  "groupname",
}

// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// UsersTable represents the platform 'directory.users' table.
//
// This table is owned by the directory platform; the kudos service only
// reads from it.
type UsersTable struct {
	Table     string
	ID        string
	FirstName string
	Surname   string
	ExAreaID  string
}

// Users is the schema definition for directory.users
var Users = UsersTable{
	Table:     "directory.users",
	ID:        "id",
	FirstName: "firstname",
	Surname:   "surname",
	ExAreaID:  "ex_area_id",
}

func (t UsersTable) Columns() []string {
	return []string{t.ID, t.FirstName, t.Surname, t.ExAreaID}
}

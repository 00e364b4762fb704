// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// GroupMemberTable represents the platform 'directory.group_member' table
type GroupMemberTable struct {
	Table   string
	GroupID string
	UserID  string
}

// GroupMember is the schema definition for directory.group_member
var GroupMember = GroupMemberTable{
	Table:   "directory.group_member",
	GroupID: "groupid",
	UserID:  "userid",
}

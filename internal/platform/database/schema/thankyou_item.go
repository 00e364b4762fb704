// Copyright (c) 2026 Intravine. All rights reserved.

// Package schema centralizes table and column names used by the SQL layer.
//
// Repositories compose statements dynamically; referencing columns through
// these structs keeps the generated SQL consistent and greppable.
package schema

// ItemTable represents the 'thankyou.item' table
type ItemTable struct {
	Table       string
	ID          string
	UserID      string
	Description string
	DateCreated string
}

// Item is the schema definition for thankyou.item
var Item = ItemTable{
	Table:       "thankyou.item",
	ID:          "id",
	UserID:      "user_id",
	Description: "description",
	DateCreated: "date_created",
}

func (t ItemTable) Columns() []string {
	return []string{t.ID, t.UserID, t.Description, t.DateCreated}
}

// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// ThankedTable represents the 'thankyou.thanked' table
type ThankedTable struct {
	Table      string
	ID         string
	ItemID     string
	ObjectType string
	ObjectID   string
}

// Thanked is the schema definition for thankyou.thanked
var Thanked = ThankedTable{
	Table:      "thankyou.thanked",
	ID:         "id",
	ItemID:     "item_id",
	ObjectType: "object_type",
	ObjectID:   "object_id",
}

func (t ThankedTable) Columns() []string {
	return []string{t.ID, t.ItemID, t.ObjectType, t.ObjectID}
}

// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// TaggedTable represents the 'thankyou.tagged' table
type TaggedTable struct {
	Table  string
	ID     string
	ItemID string
	TagID  string
}

// Tagged is the schema definition for thankyou.tagged
var Tagged = TaggedTable{
	Table:  "thankyou.tagged",
	ID:     "id",
	ItemID: "item_id",
	TagID:  "tag_id",
}

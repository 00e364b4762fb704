// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// ThankedUserTable represents the 'thankyou.thanked_user' table.
//
// Group thankeds are flattened to their member users here so that
// user-scoped filters never need to expand group membership at query time.
type ThankedUserTable struct {
	Table  string
	ItemID string
	UserID string
}

// ThankedUser is the schema definition for thankyou.thanked_user
var ThankedUser = ThankedUserTable{
	Table:  "thankyou.thanked_user",
	ItemID: "item_id",
	UserID: "user_id",
}

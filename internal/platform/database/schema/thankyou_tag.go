// Copyright (c) 2026 Intravine. All rights reserved.

package schema

// TagTable represents the 'thankyou.tag' table
type TagTable struct {
	Table        string
	ID           string
	Name         string
	Active       string
	Metadata     string
	CreatedBy    string
	CreatedDate  string
	ModifiedBy   string
	ModifiedDate string
}

// Tag is the schema definition for thankyou.tag
var Tag = TagTable{
	Table:        "thankyou.tag",
	ID:           "id",
	Name:         "name",
	Active:       "active",
	Metadata:     "metadata",
	CreatedBy:    "created_by",
	CreatedDate:  "created_date",
	ModifiedBy:   "modified_by",
	ModifiedDate: "modified_date",
}

func (t TagTable) Columns() []string {
	return []string{t.ID, t.Name, t.Active, t.Metadata, t.CreatedBy, t.CreatedDate, t.ModifiedBy, t.ModifiedDate}
}

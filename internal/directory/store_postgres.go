// Copyright (c) 2026 Intravine. All rights reserved.

package directory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/intravine/kudos/internal/platform/database/schema"
	"github.com/intravine/kudos/internal/platform/dberr"
)

// PostgresStore reads directory profiles straight from the platform tables.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a directory store over the shared platform database.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (store *PostgresStore) GetUsers(context context.Context, ids []int) (map[int]User, error) {
	users := make(map[int]User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, COALESCE(%s, 0) FROM %s WHERE %s = ANY($1)`,
		schema.Users.ID, schema.Users.FirstName, schema.Users.Surname, schema.Users.ExAreaID,
		schema.Users.Table, schema.Users.ID)

	rows, err := store.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "directory_get_users")
	}
	defer rows.Close()

	for rows.Next() {
		u := User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.Surname, &u.ExAreaID); err != nil {
			return nil, dberr.Wrap(err, "directory_scan_user")
		}
		users[u.ID] = u
	}

	return users, rows.Err()
}

func (store *PostgresStore) GetGroups(context context.Context, ids []int) (map[int]Group, error) {
	groups := make(map[int]Group, len(ids))
	if len(ids) == 0 {
		return groups, nil
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ANY($1)`,
		schema.Groups.ID, schema.Groups.Name,
		schema.Groups.Table, schema.Groups.ID)

	rows, err := store.db.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "directory_get_groups")
	}
	defer rows.Close()

	for rows.Next() {
		g := Group{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, dberr.Wrap(err, "directory_scan_group")
		}
		groups[g.ID] = g
	}

	return groups, rows.Err()
}

func (store *PostgresStore) GetGroupMemberIDs(context context.Context, groupIDs []int) (map[int][]int, error) {
	members := make(map[int][]int, len(groupIDs))
	if len(groupIDs) == 0 {
		return members, nil
	}

	// Every requested group gets an entry even when empty.
	for _, id := range groupIDs {
		members[id] = []int{}
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ANY($1) ORDER BY %s, %s`,
		schema.GroupMember.GroupID, schema.GroupMember.UserID,
		schema.GroupMember.Table, schema.GroupMember.GroupID,
		schema.GroupMember.GroupID, schema.GroupMember.UserID)

	rows, err := store.db.Query(context, query, groupIDs)
	if err != nil {
		return nil, dberr.Wrap(err, "directory_get_group_members")
	}
	defer rows.Close()

	for rows.Next() {
		var groupID, userID int
		if err := rows.Scan(&groupID, &userID); err != nil {
			return nil, dberr.Wrap(err, "directory_scan_group_member")
		}
		members[groupID] = append(members[groupID], userID)
	}

	return members, rows.Err()
}

// Copyright (c) 2026 Intravine. All rights reserved.

/*
Package directory provides read access to the platform's people data.

The kudos service does not own users or groups; they live in the directory
platform's tables. This package exposes the small slice of that data the
recognition feature needs: display names, profile links, extranet areas, and
group membership for flattening group thanks into per-user rows.

Core Responsibilities:

  - Batch Resolution: profiles are always fetched in batches, never per row.
  - Placeholders: ids that no longer resolve become "deleted user" entities
    so old thank-yous keep rendering.
  - Caching: a Redis read-through decorator keeps feed rendering off the
    platform tables.
*/
package directory

import (
	"context"
	"fmt"
	"strings"
)

// # Entities

// User is a directory profile as the recognition feature sees it.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	ExAreaID  int    `json:"ex_area_id"`

	// Deleted marks a placeholder for an id the directory no longer knows.
	Deleted bool `json:"deleted,omitempty"`
}

// DisplayName returns the user's full name for rendering.
func (u User) DisplayName() string {
	if u.Deleted {
		return "Deleted User"
	}
	return strings.TrimSpace(u.FirstName + " " + u.Surname)
}

// PhotoURL returns the platform photo endpoint for this user.
func (u User) PhotoURL() string {
	return fmt.Sprintf("/directory/photos/%d", u.ID)
}

// ProfileURL returns the platform profile page for this user.
func (u User) ProfileURL() string {
	return fmt.Sprintf("/directory/profile/%d", u.ID)
}

// Group is a directory group (a team, office, or distribution list).
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DeletedUser builds the placeholder entity for an unresolvable user id.
func DeletedUser(id int) User {
	return User{ID: id, Deleted: true}
}

// # Service Contract

// Service resolves directory profiles in batches.
//
// # Why an interface?
//
// The thank-you repositories depend on this contract, so tests can inject
// in-memory fakes and the Redis decorator can wrap the Postgres store
// transparently.
type Service interface {
	// GetUsers resolves the given user ids. Ids the directory does not know
	// are absent from the result map; callers decide whether to substitute
	// [DeletedUser] placeholders.
	GetUsers(ctx context.Context, ids []int) (map[int]User, error)

	// GetGroups resolves the given group ids, with the same absence contract
	// as GetUsers.
	GetGroups(ctx context.Context, ids []int) (map[int]Group, error)

	// GetGroupMemberIDs returns the member user ids for each given group id.
	// Groups with no members map to an empty slice.
	GetGroupMemberIDs(ctx context.Context, groupIDs []int) (map[int][]int, error)
}

// ResolveUsersWithPlaceholders resolves ids via the service and back-fills a
// [DeletedUser] placeholder for every id the directory did not return.
func ResolveUsersWithPlaceholders(ctx context.Context, service Service, ids []int) (map[int]User, error) {
	users, err := service.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, found := users[id]; !found {
			users[id] = DeletedUser(id)
		}
	}

	return users, nil
}

// Copyright (c) 2026 Intravine. All rights reserved.

package directory

import (
	"encoding/json"
	"fmt"
	"log/slog"

	stdctx "context"

	"github.com/redis/go-redis/v9"

	"github.com/intravine/kudos/internal/platform/constants"
)

// CachedService is a Redis read-through decorator over another [Service].
//
// Profiles change rarely, so feed rendering should not hit the platform
// tables on every request. Group membership is never cached: flattening a
// group thank-you against a stale member list would write wrong rows.
type CachedService struct {
	inner  Service
	client *redis.Client
	logger *slog.Logger
}

// NewCachedService wraps inner with a Redis profile cache.
func NewCachedService(inner Service, client *redis.Client, logger *slog.Logger) *CachedService {
	return &CachedService{inner: inner, client: client, logger: logger}
}

/*
GetUsers resolves user profiles, serving from Redis where possible.

Description: Cache misses fall through to the inner service in one batch and
are written back with a TTL. Redis failures degrade to the inner service
with a logged warning; the cache is never load-bearing.

Parameters:
  - context: context.Context
  - ids: user ids to resolve

Returns:
  - map[int]User: resolved profiles keyed by id (unknown ids absent)
  - error: inner service failures only
*/
func (service *CachedService) GetUsers(context stdctx.Context, ids []int) (map[int]User, error) {
	users := make(map[int]User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	// ── 1. Batch read from Redis ──────────────────────────────────────────
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%s%d", constants.RedisPrefixDirectoryUser, id)
	}

	missing := ids
	cached, err := service.client.MGet(context, keys...).Result()
	if err != nil {
		service.logger.Warn("directory_cache_read_failed", slog.Any("error", err))
	} else {
		missing = missing[:0:0]
		for i, raw := range cached {
			payload, ok := raw.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}

			u, ok := decodeCachedUser(payload, ids[i])
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			users[ids[i]] = u
		}
	}

	if len(missing) == 0 {
		return users, nil
	}

	// ── 2. Fall through to the inner service ──────────────────────────────
	fresh, err := service.inner.GetUsers(context, missing)
	if err != nil {
		return nil, err
	}

	// ── 3. Write back with TTL ────────────────────────────────────────────
	pipe := service.client.Pipeline()
	for id, u := range fresh {
		users[id] = u

		payload, err := json.Marshal(u)
		if err != nil {
			continue
		}
		key := fmt.Sprintf("%s%d", constants.RedisPrefixDirectoryUser, id)
		pipe.Set(context, key, payload, constants.DirectoryCacheTTL)
	}
	if _, err := pipe.Exec(context); err != nil {
		service.logger.Warn("directory_cache_write_failed", slog.Any("error", err))
	}

	return users, nil
}

/*
GetGroups resolves group profiles with the same read-through contract as
[CachedService.GetUsers].

Parameters:
  - context: context.Context
  - ids: group ids to resolve

Returns:
  - map[int]Group: resolved groups keyed by id (unknown ids absent)
  - error: inner service failures only
*/
func (service *CachedService) GetGroups(context stdctx.Context, ids []int) (map[int]Group, error) {
	groups := make(map[int]Group, len(ids))
	if len(ids) == 0 {
		return groups, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%s%d", constants.RedisPrefixDirectoryGroup, id)
	}

	missing := ids
	cached, err := service.client.MGet(context, keys...).Result()
	if err != nil {
		service.logger.Warn("directory_cache_read_failed", slog.Any("error", err))
	} else {
		missing = missing[:0:0]
		for i, raw := range cached {
			payload, ok := raw.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}

			g, ok := decodeCachedGroup(payload, ids[i])
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			groups[ids[i]] = g
		}
	}

	if len(missing) == 0 {
		return groups, nil
	}

	fresh, err := service.inner.GetGroups(context, missing)
	if err != nil {
		return nil, err
	}

	pipe := service.client.Pipeline()
	for id, g := range fresh {
		groups[id] = g

		payload, err := json.Marshal(g)
		if err != nil {
			continue
		}
		key := fmt.Sprintf("%s%d", constants.RedisPrefixDirectoryGroup, id)
		pipe.Set(context, key, payload, constants.DirectoryCacheTTL)
	}
	if _, err := pipe.Exec(context); err != nil {
		service.logger.Warn("directory_cache_write_failed", slog.Any("error", err))
	}

	return groups, nil
}

// decodeCachedUser parses one cached payload for the requested id. A corrupt
// payload, or one carrying a different id than the key it sat under, is a
// miss and falls through to the inner service.
func decodeCachedUser(payload string, id int) (User, bool) {
	u := User{}
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return User{}, false
	}
	if u.ID != id {
		return User{}, false
	}
	return u, true
}

// decodeCachedGroup is the [decodeCachedUser] counterpart for groups.
func decodeCachedGroup(payload string, id int) (Group, bool) {
	g := Group{}
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return Group{}, false
	}
	if g.ID != id {
		return Group{}, false
	}
	return g, true
}

// GetGroupMemberIDs always delegates to the inner service. Membership feeds
// write paths, so staleness is not acceptable here.
func (service *CachedService) GetGroupMemberIDs(context stdctx.Context, groupIDs []int) (map[int][]int, error) {
	return service.inner.GetGroupMemberIDs(context, groupIDs)
}

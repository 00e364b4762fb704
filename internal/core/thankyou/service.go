package thankyou

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/intravine/kudos/internal/core/tag"
	"github.com/intravine/kudos/internal/directory"
	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/internal/platform/sec"
	"github.com/intravine/kudos/internal/platform/validate"
	"github.com/intravine/kudos/pkg/slice"
)

const maxDescriptionLength = 4000

// ThankedRef identifies one recipient in a create/update payload.
type ThankedRef struct {
	OwnerClass int `json:"oclass"`
	ID         int `json:"id"`
}

// Expand selects which collections list and get operations hydrate.
type Expand struct {
	Thanked bool
	Users   bool
	Tags    bool
}

// ExpandAll loads every collection; the feed uses this.
var ExpandAll = Expand{Thanked: true, Users: true, Tags: true}

type Service struct {
	repo      Repository
	tags      *tag.Service
	directory directory.Service
	logger    *slog.Logger
}

func NewService(repo Repository, tags *tag.Service, directoryService directory.Service, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tags:      tags,
		directory: directoryService,
		logger:    logger,
	}
}

// # Scoping

// ScopeFilter applies extranet visibility to a caller's filter. Admins see
// everything; everyone else is pinned to their own extranet area, with the
// relaxation on so thank-yous without resolvable recipients stay visible.
func ScopeFilter(filter Filter, claims *sec.AuthClaims) Filter {
	if claims.IsAdmin() {
		return filter
	}

	filter.ExtranetIDs = []int{claims.ExtranetID}
	filter.AllowNoThanked = true
	return filter
}

// # Reads

// ListRecent returns one feed page plus the filter's total count.
func (service *Service) ListRecent(context context.Context, limit, offset int, filter Filter, expand Expand) ([]*ThankYou, int, error) {
	ids, err := service.repo.GetRecentThankYouIDs(context, limit, offset, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := service.repo.CountThankYous(context, filter)
	if err != nil {
		return nil, 0, err
	}

	thankYous, err := service.hydrate(context, ids, expand)
	if err != nil {
		return nil, 0, err
	}

	return thankYous, total, nil
}

// GetThankYou loads a single thank-you with the requested expansions.
func (service *Service) GetThankYou(context context.Context, id int, expand Expand) (*ThankYou, error) {
	thankYous, err := service.hydrate(context, []int{id}, expand)
	if err != nil {
		return nil, err
	}
	if len(thankYous) == 0 {
		return nil, apperr.NotFound("Thank you")
	}
	return thankYous[0], nil
}

// hydrate turns an ordered id window into fully assembled entities. All
// collection loads are batched across the whole window; nothing here runs
// per thank-you.
func (service *Service) hydrate(context context.Context, ids []int, expand Expand) ([]*ThankYou, error) {
	thankYous := make([]*ThankYou, 0, len(ids))
	if len(ids) == 0 {
		return thankYous, nil
	}

	byID, err := service.repo.GetThankYousByIDs(context, ids)
	if err != nil {
		return nil, err
	}

	if expand.Thanked {
		thankedByID, err := service.repo.GetThankedsByThankYouIDs(context, ids)
		if err != nil {
			return nil, err
		}
		for id, thankYou := range byID {
			thankYou.Thanked = sortedThanked(thankedByID[id])
		}
	}

	if expand.Users {
		usersByID, err := service.repo.GetUsersByThankYouIDs(context, ids)
		if err != nil {
			return nil, err
		}
		for id, thankYou := range byID {
			users := usersByID[id]
			if users == nil {
				users = []directory.User{}
			}
			thankYou.Users = users
		}
	}

	if expand.Tags {
		if err := service.attachTags(context, ids, byID); err != nil {
			return nil, err
		}
	}

	// Window order survives hydration.
	for _, id := range ids {
		if thankYou, found := byID[id]; found {
			thankYous = append(thankYous, thankYou)
		}
	}

	return thankYous, nil
}

func (service *Service) attachTags(context context.Context, ids []int, byID map[int]*ThankYou) error {
	tagIDsByItem, err := service.repo.GetTagIDsByThankYouIDs(context, ids)
	if err != nil {
		return err
	}

	var allTagIDs []int
	for _, tagIDs := range tagIDsByItem {
		allTagIDs = append(allTagIDs, tagIDs...)
	}

	tags, err := service.tags.GetTagsByIDs(context, slice.Unique(allTagIDs))
	if err != nil {
		return err
	}

	for id, thankYou := range byID {
		resolved := make([]*tag.Tag, 0, len(tagIDsByItem[id]))
		for _, tagID := range tagIDsByItem[id] {
			if t, found := tags[tagID]; found {
				resolved = append(resolved, t)
			}
		}
		thankYou.Tags = resolved
	}

	return nil
}

func sortedThanked(lines map[int]Thanked) []Thanked {
	out := make([]Thanked, 0, len(lines))
	for _, line := range lines {
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// # Writes

// Create stores a new thank-you authored by the given user.
//
// Group recipients are expanded to their current members so user-scoped
// filters and notifications work off plain user rows.
func (service *Service) Create(context context.Context, authorID int, description string, thanked []ThankedRef, tagIDs []int) (*ThankYou, error) {
	if len(thanked) == 0 {
		return nil, apperr.ValidationError("At least one recipient is required",
			apperr.FieldError{Field: "thanked", Message: "At least one recipient is required"})
	}
	if err := service.validatePayload(context, description, thanked, tagIDs); err != nil {
		return nil, err
	}

	lines, userIDs, err := service.resolveThanked(context, thanked)
	if err != nil {
		return nil, err
	}

	thankYou := &ThankYou{
		Author:      directory.User{ID: authorID},
		Description: description,
		DateCreated: time.Now().UTC(),
		Thanked:     lines,
		UserIDs:     userIDs,
		TagIDs:      normalizeTagIDs(tagIDs),
	}

	id, err := service.repo.Save(context, thankYou)
	if err != nil {
		return nil, err
	}

	return service.GetThankYou(context, id, ExpandAll)
}

// Update rewrites a thank-you. Only its author or an administrator may do
// so. A nil thanked or tagIDs leaves that collection as stored.
func (service *Service) Update(context context.Context, claims *sec.AuthClaims, id int, description string, thanked []ThankedRef, tagIDs []int) (*ThankYou, error) {
	existing, err := service.GetThankYou(context, id, Expand{})
	if err != nil {
		return nil, err
	}

	if !canModify(claims, existing.Author.ID) {
		return nil, apperr.Forbidden("Only the author or an administrator can edit a thank you")
	}

	if err := service.validatePayload(context, description, thanked, tagIDs); err != nil {
		return nil, err
	}

	existing.Description = description

	if thanked != nil {
		lines, userIDs, err := service.resolveThanked(context, thanked)
		if err != nil {
			return nil, err
		}
		existing.Thanked = lines
		existing.UserIDs = userIDs
	} else {
		existing.Thanked = nil
		existing.UserIDs = nil
	}

	existing.TagIDs = normalizeTagIDs(tagIDs)

	if _, err := service.repo.Save(context, existing); err != nil {
		return nil, err
	}

	return service.GetThankYou(context, id, ExpandAll)
}

// Delete removes a thank-you, author-or-admin only.
func (service *Service) Delete(context context.Context, claims *sec.AuthClaims, id int) error {
	existing, err := service.GetThankYou(context, id, Expand{})
	if err != nil {
		return err
	}

	if !canModify(claims, existing.Author.ID) {
		return apperr.Forbidden("Only the author or an administrator can delete a thank you")
	}

	return service.repo.Delete(context, id)
}

func canModify(claims *sec.AuthClaims, authorID int) bool {
	return claims.UserID == authorID || claims.IsAdmin()
}

func (service *Service) validatePayload(context context.Context, description string, thanked []ThankedRef, tagIDs []int) error {
	validator := (&validate.Validator{}).
		Required("description", description).
		MaxLen("description", description, maxDescriptionLength)

	if thanked != nil {
		validator.Custom("thanked", len(thanked) == 0, "At least one recipient is required")
	}

	if err := validator.Err(); err != nil {
		return err
	}

	for _, ref := range thanked {
		if !OwnerClass(ref.OwnerClass).Supported() {
			return apperr.UnsupportedOwnerClass(
				fmt.Sprintf("owner class %d cannot be thanked", ref.OwnerClass))
		}
		if ref.ID < 1 {
			return apperr.ValidationError("Recipient ids must be positive")
		}
	}

	// Every referenced tag must exist.
	if len(tagIDs) > 0 {
		known, err := service.tags.GetTagsByIDs(context, slice.Unique(tagIDs))
		if err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if _, found := known[tagID]; !found {
				return apperr.ValidationError(fmt.Sprintf("Tag %d does not exist", tagID))
			}
		}
	}

	return nil
}

// resolveThanked turns recipient refs into stored lines plus the flattened
// per-user id list, expanding group members through the directory.
func (service *Service) resolveThanked(context context.Context, thanked []ThankedRef) ([]Thanked, []int, error) {
	lines := make([]Thanked, 0, len(thanked))
	var userIDs []int
	var groupIDs []int

	for _, ref := range thanked {
		lines = append(lines, Thanked{
			OwnerClass: OwnerClass(ref.OwnerClass),
			ObjectID:   ref.ID,
		})

		switch OwnerClass(ref.OwnerClass) {
		case OwnerClassIndividual:
			userIDs = append(userIDs, ref.ID)
		case OwnerClassGroup:
			groupIDs = append(groupIDs, ref.ID)
		}
	}

	if len(groupIDs) > 0 {
		members, err := service.directory.GetGroupMemberIDs(context, slice.Unique(groupIDs))
		if err != nil {
			return nil, nil, err
		}
		for _, groupID := range groupIDs {
			userIDs = append(userIDs, members[groupID]...)
		}
	}

	return lines, slice.Unique(userIDs), nil
}

// normalizeTagIDs keeps the nil/non-nil write contract intact while
// deduplicating real values.
func normalizeTagIDs(tagIDs []int) []int {
	if tagIDs == nil {
		return nil
	}
	return slice.Unique(tagIDs)
}

// # Statistics

// TagStats returns per-tag usage totals with their tag entities, plus the
// distinct tag total for the meta block.
func (service *Service) TagStats(context context.Context, orders []Order, limit, offset int, filter Filter) (map[int]int, map[int]*tag.Tag, int, error) {
	totals, err := service.repo.GetTagsTotalUses(context, orders, limit, offset, filter)
	if err != nil {
		return nil, nil, 0, err
	}

	tagIDs := make([]int, 0, len(totals))
	for tagID := range totals {
		tagIDs = append(tagIDs, tagID)
	}
	tags, err := service.tags.GetTagsByIDs(context, tagIDs)
	if err != nil {
		return nil, nil, 0, err
	}

	totalTags, err := service.repo.GetTotalTags(context, filter)
	if err != nil {
		return nil, nil, 0, err
	}

	return totals, tags, totalTags, nil
}

// UserStats returns per-user received totals with their directory profiles,
// plus the distinct user total for the meta block.
func (service *Service) UserStats(context context.Context, limit, offset int, filter Filter) (map[int]int, map[int]directory.User, int, error) {
	totals, err := service.repo.GetUsersTotalThankYous(context, limit, offset, filter)
	if err != nil {
		return nil, nil, 0, err
	}

	userIDs := make([]int, 0, len(totals))
	for userID := range totals {
		userIDs = append(userIDs, userID)
	}
	users, err := directory.ResolveUsersWithPlaceholders(context, service.directory, userIDs)
	if err != nil {
		return nil, nil, 0, err
	}

	totalUsers, err := service.repo.GetTotalUsers(context, filter)
	if err != nil {
		return nil, nil, 0, err
	}

	return totals, users, totalUsers, nil
}

package thankyou

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intravine/kudos/internal/core/tag"
	"github.com/intravine/kudos/internal/directory"
	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/internal/platform/sec"
)

// fakeRepository keeps thank-yous in memory and honours the nil/non-nil
// collection contract on Save so the write-path tests exercise the same
// semantics the real store implements.
type fakeRepository struct {
	items     map[int]*ThankYou
	nextID    int
	lastSaved *ThankYou
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{items: map[int]*ThankYou{}, nextID: 1}
}

func (repo *fakeRepository) GetRecentThankYouIDs(_ context.Context, limit, offset int, filter Filter) ([]int, error) {
	ids := make([]int, 0, len(repo.items))
	for id := range repo.items {
		ids = append(ids, id)
	}
	return ids, nil
}

func (repo *fakeRepository) CountThankYous(_ context.Context, filter Filter) (int, error) {
	return len(repo.items), nil
}

func (repo *fakeRepository) GetThankYousByIDs(_ context.Context, ids []int) (map[int]*ThankYou, error) {
	out := map[int]*ThankYou{}
	for _, id := range ids {
		if stored, found := repo.items[id]; found {
			copied := *stored
			copied.Thanked = nil
			copied.Users = nil
			copied.Tags = nil
			out[id] = &copied
		}
	}
	return out, nil
}

func (repo *fakeRepository) GetThankedsByThankYouIDs(_ context.Context, ids []int) (map[int]map[int]Thanked, error) {
	out := map[int]map[int]Thanked{}
	for _, id := range ids {
		stored, found := repo.items[id]
		if !found {
			continue
		}
		lines := map[int]Thanked{}
		for i, line := range stored.Thanked {
			line.ID = i + 1
			lines[line.ID] = line
		}
		out[id] = lines
	}
	return out, nil
}

func (repo *fakeRepository) GetUsersByThankYouIDs(_ context.Context, ids []int) (map[int][]directory.User, error) {
	out := map[int][]directory.User{}
	for _, id := range ids {
		if stored, found := repo.items[id]; found {
			for _, userID := range stored.UserIDs {
				out[id] = append(out[id], directory.User{ID: userID})
			}
		}
	}
	return out, nil
}

func (repo *fakeRepository) GetTagIDsByThankYouIDs(_ context.Context, ids []int) (map[int][]int, error) {
	out := map[int][]int{}
	for _, id := range ids {
		if stored, found := repo.items[id]; found {
			out[id] = stored.TagIDs
		}
	}
	return out, nil
}

func (repo *fakeRepository) GetTagsTotalUses(_ context.Context, _ []Order, _, _ int, _ Filter) (map[int]int, error) {
	return map[int]int{}, nil
}

func (repo *fakeRepository) GetUsersTotalThankYous(_ context.Context, _, _ int, _ Filter) (map[int]int, error) {
	return map[int]int{}, nil
}

func (repo *fakeRepository) GetTotalUsers(_ context.Context, _ Filter) (int, error) { return 0, nil }
func (repo *fakeRepository) GetTotalTags(_ context.Context, _ Filter) (int, error)  { return 0, nil }

func (repo *fakeRepository) Save(_ context.Context, thankYou *ThankYou) (int, error) {
	saved := *thankYou
	repo.lastSaved = &saved

	if thankYou.ID == 0 {
		thankYou.ID = repo.nextID
		repo.nextID++
		stored := saved
		stored.ID = thankYou.ID
		repo.items[thankYou.ID] = &stored
		return thankYou.ID, nil
	}

	existing, found := repo.items[thankYou.ID]
	if !found {
		return 0, apperr.NotFound("Thank you")
	}
	existing.Description = thankYou.Description
	if thankYou.Thanked != nil {
		existing.Thanked = thankYou.Thanked
	}
	if thankYou.UserIDs != nil {
		existing.UserIDs = thankYou.UserIDs
	}
	if thankYou.TagIDs != nil {
		existing.TagIDs = thankYou.TagIDs
	}
	return thankYou.ID, nil
}

func (repo *fakeRepository) Delete(_ context.Context, id int) error {
	if _, found := repo.items[id]; !found {
		return apperr.NotFound("Thank you")
	}
	delete(repo.items, id)
	return nil
}

// fakeDirectory resolves every requested id and serves configured group
// memberships.
type fakeDirectory struct {
	members map[int][]int
}

func (d *fakeDirectory) GetUsers(_ context.Context, ids []int) (map[int]directory.User, error) {
	out := map[int]directory.User{}
	for _, id := range ids {
		out[id] = directory.User{ID: id, FirstName: "User", Surname: "Example", ExAreaID: 1}
	}
	return out, nil
}

func (d *fakeDirectory) GetGroups(_ context.Context, ids []int) (map[int]directory.Group, error) {
	out := map[int]directory.Group{}
	for _, id := range ids {
		out[id] = directory.Group{ID: id, Name: "Group"}
	}
	return out, nil
}

func (d *fakeDirectory) GetGroupMemberIDs(_ context.Context, groupIDs []int) (map[int][]int, error) {
	out := map[int][]int{}
	for _, id := range groupIDs {
		out[id] = d.members[id]
	}
	return out, nil
}

// fakeTagRepository backs the tag service with a fixed set of known tags.
type fakeTagRepository struct {
	tags map[int]*tag.Tag
}

func (repo *fakeTagRepository) List(_ context.Context, _, _ int, _ tag.ListFilter, _ []tag.Order) ([]*tag.Tag, error) {
	return nil, nil
}

func (repo *fakeTagRepository) Total(_ context.Context) (int, error) { return len(repo.tags), nil }

func (repo *fakeTagRepository) GetByIDs(_ context.Context, ids []int) (map[int]*tag.Tag, error) {
	out := map[int]*tag.Tag{}
	for _, id := range ids {
		if t, found := repo.tags[id]; found {
			out[id] = t
		}
	}
	return out, nil
}

func (repo *fakeTagRepository) NameExists(_ context.Context, _ string, _ int) (bool, error) {
	return false, nil
}

func (repo *fakeTagRepository) Save(_ context.Context, t *tag.Tag) (int, error) { return t.ID, nil }
func (repo *fakeTagRepository) Delete(_ context.Context, _ int) error           { return nil }

func newTestService(members map[int][]int, knownTags ...int) (*Service, *fakeRepository) {
	logger := slog.Default()

	tagRepo := &fakeTagRepository{tags: map[int]*tag.Tag{}}
	for _, id := range knownTags {
		tagRepo.tags[id] = &tag.Tag{ID: id, Name: "Tag", Active: true}
	}

	repo := newFakeRepository()
	service := NewService(repo, tag.NewService(tagRepo, logger), &fakeDirectory{members: members}, logger)
	return service, repo
}

func memberClaims(userID, extranetID int) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: userID, ExtranetID: extranetID, Role: string(sec.RoleMember)}
}

func adminClaims(userID int) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: userID, Role: string(sec.RoleAdmin)}
}

func TestScopeFilter(t *testing.T) {
	filter := Filter{TagIDs: []int{3}}

	scoped := ScopeFilter(filter, memberClaims(10, 7))
	assert.Equal(t, []int{7}, scoped.ExtranetIDs)
	assert.True(t, scoped.AllowNoThanked)
	assert.Equal(t, []int{3}, scoped.TagIDs)

	unscoped := ScopeFilter(filter, adminClaims(1))
	assert.Nil(t, unscoped.ExtranetIDs)
	assert.False(t, unscoped.AllowNoThanked)
}

func TestCreate_RequiresRecipients(t *testing.T) {
	service, _ := newTestService(nil)

	_, err := service.Create(context.Background(), 1, "thanks", nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))

	_, err = service.Create(context.Background(), 1, "thanks", []ThankedRef{}, nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestCreate_RejectsUnsupportedOwnerClass(t *testing.T) {
	service, _ := newTestService(nil)

	_, err := service.Create(context.Background(), 1, "thanks",
		[]ThankedRef{{OwnerClass: 2, ID: 5}}, nil)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "UNSUPPORTED_OWNER_CLASS"))
}

func TestCreate_RejectsUnknownTag(t *testing.T) {
	service, _ := newTestService(nil, 1)

	_, err := service.Create(context.Background(), 1, "thanks",
		[]ThankedRef{{OwnerClass: int(OwnerClassIndividual), ID: 5}}, []int{1, 99})

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestCreate_FlattensGroupRecipients(t *testing.T) {
	service, repo := newTestService(map[int][]int{40: {5, 6, 7}})

	created, err := service.Create(context.Background(), 1, "great sprint",
		[]ThankedRef{
			{OwnerClass: int(OwnerClassIndividual), ID: 5},
			{OwnerClass: int(OwnerClassGroup), ID: 40},
		}, nil)
	require.NoError(t, err)

	// Both lines survive as stored recipients.
	require.Len(t, created.Thanked, 2)
	assert.Equal(t, OwnerClassIndividual, created.Thanked[0].OwnerClass)
	assert.Equal(t, OwnerClassGroup, created.Thanked[1].OwnerClass)

	// The group expands to its members, deduplicated against the direct
	// individual recipient.
	assert.ElementsMatch(t, []int{5, 6, 7}, repo.lastSaved.UserIDs)
}

func TestCreate_ReturnsHydratedEntity(t *testing.T) {
	service, _ := newTestService(nil, 3)

	created, err := service.Create(context.Background(), 9, "thanks for the review",
		[]ThankedRef{{OwnerClass: int(OwnerClassIndividual), ID: 5}}, []int{3})
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, 9, created.Author.ID)
	require.Len(t, created.Users, 1)
	assert.Equal(t, 5, created.Users[0].ID)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, 3, created.Tags[0].ID)
}

func TestUpdate_OnlyAuthorOrAdmin(t *testing.T) {
	service, _ := newTestService(nil)

	created, err := service.Create(context.Background(), 1, "thanks",
		[]ThankedRef{{OwnerClass: int(OwnerClassIndividual), ID: 5}}, nil)
	require.NoError(t, err)

	_, err = service.Update(context.Background(), memberClaims(2, 1), created.ID, "edited", nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "FORBIDDEN"))

	updated, err := service.Update(context.Background(), memberClaims(1, 1), created.ID, "edited by author", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "edited by author", updated.Description)

	updated, err = service.Update(context.Background(), adminClaims(99), created.ID, "edited by admin", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "edited by admin", updated.Description)
}

func TestUpdate_NilCollectionsLeaveStoredAssociations(t *testing.T) {
	service, repo := newTestService(nil, 3)

	created, err := service.Create(context.Background(), 1, "thanks",
		[]ThankedRef{{OwnerClass: int(OwnerClassIndividual), ID: 5}}, []int{3})
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), memberClaims(1, 1), created.ID, "reworded", nil, nil)
	require.NoError(t, err)

	// The description-only save carried nil collections to the repository.
	assert.Nil(t, repo.lastSaved.Thanked)
	assert.Nil(t, repo.lastSaved.UserIDs)
	assert.Nil(t, repo.lastSaved.TagIDs)

	// The stored associations are still there.
	require.Len(t, updated.Thanked, 1)
	assert.Equal(t, 5, updated.Thanked[0].ObjectID)
	require.Len(t, updated.Tags, 1)
}

func TestDelete_OnlyAuthorOrAdmin(t *testing.T) {
	service, repo := newTestService(nil)

	created, err := service.Create(context.Background(), 1, "thanks",
		[]ThankedRef{{OwnerClass: int(OwnerClassIndividual), ID: 5}}, nil)
	require.NoError(t, err)

	err = service.Delete(context.Background(), memberClaims(2, 1), created.ID)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "FORBIDDEN"))

	require.NoError(t, service.Delete(context.Background(), adminClaims(99), created.ID))
	assert.Empty(t, repo.items)
}

func TestGetThankYou_NotFound(t *testing.T) {
	service, _ := newTestService(nil)

	_, err := service.GetThankYou(context.Background(), 404, ExpandAll)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

func TestHydrate_PreservesWindowOrder(t *testing.T) {
	service, repo := newTestService(nil)

	now := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		repo.items[i] = &ThankYou{
			ID:          i,
			Author:      directory.User{ID: 1},
			Description: "thanks",
			DateCreated: now,
		}
	}

	thankYous, err := service.hydrate(context.Background(), []int{3, 1, 2}, Expand{})
	require.NoError(t, err)

	require.Len(t, thankYous, 3)
	assert.Equal(t, 3, thankYous[0].ID)
	assert.Equal(t, 1, thankYous[1].ID)
	assert.Equal(t, 2, thankYous[2].ID)
}

package tag

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/pkg/pointer"
)

// fakeRepository keeps tags in memory for service tests.
type fakeRepository struct {
	tags   map[int]*Tag
	nextID int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{tags: make(map[int]*Tag), nextID: 1}
}

func (f *fakeRepository) List(_ context.Context, limit, offset int, _ ListFilter, _ []Order) ([]*Tag, error) {
	out := make([]*Tag, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, t)
	}
	if offset >= len(out) {
		return []*Tag{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepository) Total(_ context.Context) (int, error) {
	return len(f.tags), nil
}

func (f *fakeRepository) GetByIDs(_ context.Context, ids []int) (map[int]*Tag, error) {
	out := make(map[int]*Tag)
	for _, id := range ids {
		if t, ok := f.tags[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeRepository) NameExists(_ context.Context, name string, excludeID int) (bool, error) {
	for _, t := range f.tags {
		if t.Name == name && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) Save(_ context.Context, tag *Tag) (int, error) {
	if !tag.IsPersisted() {
		tag.ID = f.nextID
		f.nextID++
	}
	stored := *tag
	f.tags[tag.ID] = &stored
	return tag.ID, nil
}

func (f *fakeRepository) Delete(_ context.Context, id int) error {
	if _, ok := f.tags[id]; !ok {
		return apperr.NotFound("Tag")
	}
	delete(f.tags, id)
	return nil
}

func newTestService() (*Service, *fakeRepository) {
	repo := newFakeRepository()
	return NewService(repo, slog.Default()), repo
}

func validTag() *Tag {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &Tag{
		Name:         "Teamwork",
		Active:       true,
		CreatedBy:    7,
		CreatedDate:  now,
		ModifiedBy:   7,
		ModifiedDate: now,
	}
}

func TestSaveTag_AssignsID(t *testing.T) {
	service, repo := newTestService()

	id, err := service.SaveTag(context.Background(), validTag())

	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Len(t, repo.tags, 1)
}

func TestSaveTag_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*Tag)
		wantCode string
	}{
		{
			name:     "empty name",
			mutate:   func(tag *Tag) { tag.Name = "" },
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "bad colour",
			mutate:   func(tag *Tag) { tag.BgColour = pointer.To("blue") },
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "missing modified_by",
			mutate:   func(tag *Tag) { tag.ModifiedBy = 0 },
			wantCode: "MISSING_REQUIRED_FIELD",
		},
		{
			name:     "missing modified_date",
			mutate:   func(tag *Tag) { tag.ModifiedDate = time.Time{} },
			wantCode: "MISSING_REQUIRED_FIELD",
		},
		{
			name:     "missing created_by on insert",
			mutate:   func(tag *Tag) { tag.CreatedBy = 0 },
			wantCode: "MISSING_REQUIRED_FIELD",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, _ := newTestService()
			tag := validTag()
			tc.mutate(tag)

			_, err := service.SaveTag(context.Background(), tag)

			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, tc.wantCode), "got %v", err)
		})
	}
}

func TestSaveTag_CreatedByNotRequiredOnUpdate(t *testing.T) {
	service, _ := newTestService()

	id, err := service.SaveTag(context.Background(), validTag())
	require.NoError(t, err)

	updated, err := service.GetTag(context.Background(), id)
	require.NoError(t, err)

	updated.CreatedBy = 0
	updated.CreatedDate = time.Time{}
	updated.Name = "Collaboration"

	_, err = service.SaveTag(context.Background(), updated)
	assert.NoError(t, err)
}

func TestSaveTag_DuplicateName(t *testing.T) {
	service, _ := newTestService()

	_, err := service.SaveTag(context.Background(), validTag())
	require.NoError(t, err)

	_, err = service.SaveTag(context.Background(), validTag())

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "DUPLICATE_NAME"))
}

func TestSaveTag_DuplicateCheckExcludesSelf(t *testing.T) {
	service, _ := newTestService()

	id, err := service.SaveTag(context.Background(), validTag())
	require.NoError(t, err)

	existing, err := service.GetTag(context.Background(), id)
	require.NoError(t, err)

	// Re-saving under its own name must not trip the uniqueness check.
	_, err = service.SaveTag(context.Background(), existing)
	assert.NoError(t, err)
}

func TestListTags_RejectsUnknownOrderColumn(t *testing.T) {
	service, _ := newTestService()

	_, err := service.ListTags(context.Background(), 10, 0, ListFilter{}, []Order{{Column: "bg_colour"}})

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "INVALID_FILTER"))
}

func TestGetTag_NotFound(t *testing.T) {
	service, _ := newTestService()

	_, err := service.GetTag(context.Background(), 404)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

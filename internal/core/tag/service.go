package tag

import (
	"context"
	"log/slog"

	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/internal/platform/validate"
	"github.com/intravine/kudos/pkg/pointer"
)

const maxNameLength = 100

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListTags(context context.Context, limit, offset int, filter ListFilter, orders []Order) ([]*Tag, error) {
	for _, order := range orders {
		if !ValidOrderColumn(order.Column) {
			return nil, apperr.InvalidFilter("cannot order tags by " + order.Column)
		}
	}
	return service.repo.List(context, limit, offset, filter, orders)
}

func (service *Service) TotalTags(context context.Context) (int, error) {
	return service.repo.Total(context)
}

func (service *Service) GetTagsByIDs(context context.Context, ids []int) (map[int]*Tag, error) {
	return service.repo.GetByIDs(context, ids)
}

func (service *Service) GetTag(context context.Context, id int) (*Tag, error) {
	tags, err := service.repo.GetByIDs(context, []int{id})
	if err != nil {
		return nil, err
	}

	tag, found := tags[id]
	if !found {
		return nil, apperr.NotFound("Tag")
	}
	return tag, nil
}

// SaveTag validates and persists a tag.
//
// Uniqueness is pre-checked against the store before writing. The check and
// the write are not atomic; a concurrent insert of the same name slips past
// the pre-check and is caught by the unique index instead, surfacing as the
// same DUPLICATE_NAME error.
func (service *Service) SaveTag(context context.Context, tag *Tag) (int, error) {
	if err := service.validateTag(tag); err != nil {
		return 0, err
	}

	exists, err := service.repo.NameExists(context, tag.Name, tag.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, apperr.DuplicateName("Tag")
	}

	return service.repo.Save(context, tag)
}

func (service *Service) DeleteTag(context context.Context, id int) error {
	return service.repo.Delete(context, id)
}

func (service *Service) validateTag(tag *Tag) error {
	validator := (&validate.Validator{}).
		Required("name", tag.Name).
		MaxLen("name", tag.Name, maxNameLength).
		HexColour("bg_colour", pointer.Val(tag.BgColour))

	if err := validator.Err(); err != nil {
		return err
	}

	// Audit fields come from the caller, never defaulted here.
	if tag.ModifiedBy == 0 {
		return apperr.MissingRequiredField("modified_by")
	}
	if tag.ModifiedDate.IsZero() {
		return apperr.MissingRequiredField("modified_date")
	}

	if !tag.IsPersisted() {
		if tag.CreatedBy == 0 {
			return apperr.MissingRequiredField("created_by")
		}
		if tag.CreatedDate.IsZero() {
			return apperr.MissingRequiredField("created_date")
		}
	}

	return nil
}

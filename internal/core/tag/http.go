package tag

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/intravine/kudos/internal/platform/apperr"
	"github.com/intravine/kudos/internal/platform/middleware"
	requestutil "github.com/intravine/kudos/internal/platform/request"
	"github.com/intravine/kudos/internal/platform/respond"
	"github.com/intravine/kudos/internal/platform/sec"
	"github.com/intravine/kudos/pkg/convert"
	"github.com/intravine/kudos/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listTags)
	router.Get("/{id}", handler.getTag)

	// Mutations are admin-only; reads are open to any authenticated user.
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Post("/", handler.createTag)
		admin.Post("/{id}", handler.updateTag)
		admin.Delete("/{id}", handler.deleteTag)
	})
}

func (handler *Handler) listTags(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := ListFilter{
		NamePrefix: request.URL.Query().Get("name"),
	}
	if rawActive := request.URL.Query().Get("active"); rawActive != "" {
		active := convert.ToBool(rawActive)
		filter.Active = &active
	}

	var orders []Order
	if column := request.URL.Query().Get("order"); column != "" {
		orders = append(orders, Order{
			Column: column,
			Desc:   convert.ToBool(request.URL.Query().Get("desc")),
		})
	}

	tags, err := handler.service.ListTags(request.Context(), params.Limit, params.Offset(), filter, orders)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	total, err := handler.service.TotalTags(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, tags, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) getTag(writer http.ResponseWriter, request *http.Request) {
	tagID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tag, err := handler.service.GetTag(request.Context(), tagID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tag)
}

type saveTagRequest struct {
	Name     string  `json:"name"`
	Active   *bool   `json:"active"`
	BgColour *string `json:"bg_colour"`
}

func (handler *Handler) createTag(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload := saveTagRequest{}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid JSON payload"))
		return
	}

	now := time.Now().UTC()
	tag := &Tag{
		Name:         payload.Name,
		Active:       true,
		BgColour:     payload.BgColour,
		CreatedBy:    claims.UserID,
		CreatedDate:  now,
		ModifiedBy:   claims.UserID,
		ModifiedDate: now,
	}
	if payload.Active != nil {
		tag.Active = *payload.Active
	}

	if _, err := handler.service.SaveTag(request.Context(), tag); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, tag)
}

func (handler *Handler) updateTag(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tagID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tag, err := handler.service.GetTag(request.Context(), tagID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload := saveTagRequest{}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid JSON payload"))
		return
	}

	if payload.Name != "" {
		tag.Name = payload.Name
	}
	if payload.Active != nil {
		tag.Active = *payload.Active
	}
	if payload.BgColour != nil {
		tag.BgColour = payload.BgColour
	}
	tag.ModifiedBy = claims.UserID
	tag.ModifiedDate = time.Now().UTC()

	if _, err := handler.service.SaveTag(request.Context(), tag); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tag)
}

func (handler *Handler) deleteTag(writer http.ResponseWriter, request *http.Request) {
	tagID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteTag(request.Context(), tagID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

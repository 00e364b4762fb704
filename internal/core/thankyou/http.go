package thankyou

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/intravine/kudos/internal/core/tag"
	"github.com/intravine/kudos/internal/directory"
	"github.com/intravine/kudos/internal/platform/apperr"
	requestutil "github.com/intravine/kudos/internal/platform/request"
	"github.com/intravine/kudos/internal/platform/respond"
	"github.com/intravine/kudos/pkg/convert"
	"github.com/intravine/kudos/pkg/pagination"
	"github.com/intravine/kudos/pkg/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the thank-you resource. The router this lands on
// already requires authentication.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listThankYous)
	router.Post("/", handler.createThankYou)
	router.Get("/{id}", handler.getThankYou)
	router.Post("/{id}", handler.updateThankYou)
	router.Delete("/{id}", handler.deleteThankYou)
}

// RegisterThanksRoutes mounts the single-item path the original front-end
// widgets call, with its ?thanked=1&tags=1 expansion switches.
func (handler *Handler) RegisterThanksRoutes(router chi.Router) {
	router.Get("/{id}", handler.getThanks)
}

// RegisterStatsRoutes mounts the aggregate screens.
func (handler *Handler) RegisterStatsRoutes(router chi.Router) {
	router.Get("/tags", handler.tagStats)
	router.Get("/users", handler.userStats)
}

// # Feed

func (handler *Handler) listThankYous(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter, err := filterFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	filter = ScopeFilter(filter, claims)

	params := pagination.FromRequest(request)

	thankYous, total, err := handler.service.ListRecent(
		request.Context(), params.Limit, params.Offset(), filter, ExpandAll)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, thankYous, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) getThankYou(writer http.ResponseWriter, request *http.Request) {
	handler.respondSingle(writer, request, ExpandAll)
}

// getThanks serves the original widget contract: collections load only when
// asked for.
func (handler *Handler) getThanks(writer http.ResponseWriter, request *http.Request) {
	expand := Expand{
		Thanked: convert.ToBool(request.URL.Query().Get("thanked")),
		Users:   convert.ToBool(request.URL.Query().Get("users")),
		Tags:    convert.ToBool(request.URL.Query().Get("tags")),
	}
	handler.respondSingle(writer, request, expand)
}

func (handler *Handler) respondSingle(writer http.ResponseWriter, request *http.Request, expand Expand) {
	if _, err := requestutil.RequiredClaims(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	thankYou, err := handler.service.GetThankYou(request.Context(), id, expand)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, thankYou)
}

// # Mutations

type saveThankYouRequest struct {
	Description string       `json:"description"`
	Thanked     []ThankedRef `json:"thanked"`
	Tags        []int        `json:"tags"`
}

func (handler *Handler) createThankYou(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload := saveThankYouRequest{}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid JSON payload"))
		return
	}

	thankYou, err := handler.service.Create(
		request.Context(), claims.UserID, payload.Description, payload.Thanked, payload.Tags)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, thankYou)
}

func (handler *Handler) updateThankYou(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload := saveThankYouRequest{}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid JSON payload"))
		return
	}

	thankYou, err := handler.service.Update(
		request.Context(), claims, id, payload.Description, payload.Thanked, payload.Tags)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, thankYou)
}

func (handler *Handler) deleteThankYou(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Statistics

type tagStatRow struct {
	Tag       *tag.Tag `json:"tag,omitempty"`
	TagID     int      `json:"tag_id"`
	TotalUses int      `json:"total_uses"`
}

func (handler *Handler) tagStats(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter, err := filterFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	filter = ScopeFilter(filter, claims)

	params := pagination.FromRequest(request)

	var orders []Order
	if column := request.URL.Query().Get("order"); column != "" {
		orders = append(orders, Order{
			Column: column,
			Desc:   convert.ToBool(request.URL.Query().Get("desc")),
		})
	}

	totals, tags, totalTags, err := handler.service.TagStats(
		request.Context(), orders, params.Limit, params.Offset(), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	statRows := make([]tagStatRow, 0, len(totals))
	for tagID, count := range totals {
		statRows = append(statRows, tagStatRow{Tag: tags[tagID], TagID: tagID, TotalUses: count})
	}
	sort.Slice(statRows, func(i, j int) bool {
		if statRows[i].TotalUses != statRows[j].TotalUses {
			return statRows[i].TotalUses > statRows[j].TotalUses
		}
		return statRows[i].TagID < statRows[j].TagID
	})

	respond.Paginated(writer, statRows, pagination.NewMeta(params.Page, params.Limit, totalTags))
}

type userStatRow struct {
	User           directory.User `json:"user"`
	TotalThankYous int            `json:"total_thank_yous"`
}

func (handler *Handler) userStats(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter, err := filterFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	filter = ScopeFilter(filter, claims)

	params := pagination.FromRequest(request)

	totals, users, totalUsers, err := handler.service.UserStats(
		request.Context(), params.Limit, params.Offset(), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	statRows := make([]userStatRow, 0, len(totals))
	for userID, count := range totals {
		statRows = append(statRows, userStatRow{User: users[userID], TotalThankYous: count})
	}
	sort.Slice(statRows, func(i, j int) bool {
		if statRows[i].TotalThankYous != statRows[j].TotalThankYous {
			return statRows[i].TotalThankYous > statRows[j].TotalThankYous
		}
		return statRows[i].User.ID < statRows[j].User.ID
	})

	respond.Paginated(writer, statRows, pagination.NewMeta(params.Page, params.Limit, totalUsers))
}

// # Query Parsing

// filterFromRequest builds a [Filter] from the shared list/stats query
// parameters. An absent or empty id-list parameter leaves that dimension
// unconstrained; values present must all parse as positive ids.
func filterFromRequest(request *http.Request) (Filter, error) {
	values := request.URL.Query()
	filter := Filter{}

	rawFrom := values.Get("date_from")
	rawTo := values.Get("date_to")
	if rawFrom != "" || rawTo != "" {
		if rawFrom == "" || rawTo == "" {
			return Filter{}, apperr.InvalidFilter("date_from and date_to must be provided together")
		}

		lower, errFrom := strconv.ParseInt(rawFrom, 10, 64)
		upper, errTo := strconv.ParseInt(rawTo, 10, 64)
		if errFrom != nil || errTo != nil {
			return Filter{}, apperr.InvalidFilter("date bounds must be YYYYMMDDHHMMSS timestamps")
		}
		filter.DateRange = &DateRange{Lower: lower, Upper: upper}
	}

	if values.Has("tag_ids") {
		ids, err := query.PositiveIntSlice(values.Get("tag_ids"))
		if err != nil {
			return Filter{}, apperr.InvalidFilter("Invalid tag_ids: " + err.Error())
		}
		filter.TagIDs = ids
	}

	if values.Has("thanked_user_ids") {
		ids, err := query.PositiveIntSlice(values.Get("thanked_user_ids"))
		if err != nil {
			return Filter{}, apperr.InvalidFilter("Invalid thanked_user_ids: " + err.Error())
		}
		filter.ThankedUserIDs = ids
	}

	return filter, nil
}

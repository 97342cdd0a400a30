package records

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/recordhub/backend/internal/handler/httperr"
	recordService "github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/pkg/utils"
)

// QueryFunc turns query parameters into a record predicate. A nil predicate
// means no filtering.
type QueryFunc[T any] func(q url.Values) (func(T) bool, error)

// Handler 通用记录CRUD的HTTP处理器
type Handler[T recordService.Entity[T], P recordService.Patch[T]] struct {
	svc    *recordService.Service[T]
	filter QueryFunc[T]
	search QueryFunc[T]
}

// Option 处理器可选项
type Option[T recordService.Entity[T], P recordService.Patch[T]] func(*Handler[T, P])

// WithListFilter 为列表接口增加查询参数过滤
func WithListFilter[T recordService.Entity[T], P recordService.Patch[T]](fn QueryFunc[T]) Option[T, P] {
	return func(h *Handler[T, P]) { h.filter = fn }
}

// WithSearch 注册 GET /search 接口
func WithSearch[T recordService.Entity[T], P recordService.Patch[T]](fn QueryFunc[T]) Option[T, P] {
	return func(h *Handler[T, P]) { h.search = fn }
}

// New 创建记录处理器
func New[T recordService.Entity[T], P recordService.Patch[T]](svc *recordService.Service[T], opts ...Option[T, P]) *Handler[T, P] {
	h := &Handler[T, P]{svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 在 pattern 下注册CRUD路由
func (h *Handler[T, P]) RegisterRoutes(r chi.Router, pattern string) {
	r.Route(pattern, func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		if h.search != nil {
			r.Get("/search", h.HandleSearch)
		}
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleReplace)
		r.Patch("/{id}", h.HandlePatch)
		r.Delete("/{id}", h.HandleDelete)
	})
}

func (h *Handler[T, P]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input T
	if err := httperr.Decode(r, &input); err != nil {
		httperr.Write(w, r, err)
		return
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler[T, P]) HandleList(w http.ResponseWriter, r *http.Request) {
	h.respondQuery(w, r, h.filter)
}

func (h *Handler[T, P]) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.respondQuery(w, r, h.search)
}

func (h *Handler[T, P]) respondQuery(w http.ResponseWriter, r *http.Request, query QueryFunc[T]) {
	var pred func(T) bool
	if query != nil {
		var err error
		if pred, err = query(r.URL.Query()); err != nil {
			httperr.Write(w, r, err)
			return
		}
	}

	var (
		items []T
		err   error
	)
	if pred == nil {
		items, err = h.svc.List(r.Context())
	} else {
		items, err = h.svc.Filter(r.Context(), pred)
	}
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	hlog.FromRequest(r).Debug().
		Str("collection", h.svc.Collection()).
		Int("count", len(items)).
		Msg("records listed")
	utils.RespondJSON(w, http.StatusOK, items)
}

func (h *Handler[T, P]) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler[T, P]) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var input T
	if err := httperr.Decode(r, &input); err != nil {
		httperr.Write(w, r, err)
		return
	}

	updated, err := h.svc.Replace(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler[T, P]) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var patch P
	if err := httperr.Decode(r, &patch); err != nil {
		httperr.Write(w, r, err)
		return
	}

	updated, err := h.svc.Patch(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler[T, P]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}

package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	cartHandler "github.com/zhouzirui/recordhub/backend/internal/handler/cart"
	eventsHandler "github.com/zhouzirui/recordhub/backend/internal/handler/events"
	"github.com/zhouzirui/recordhub/backend/internal/handler/records"
	middlewarePkg "github.com/zhouzirui/recordhub/backend/internal/middleware"
	"github.com/zhouzirui/recordhub/backend/internal/model/application"
	"github.com/zhouzirui/recordhub/backend/internal/model/contact"
	"github.com/zhouzirui/recordhub/backend/internal/model/note"
	"github.com/zhouzirui/recordhub/backend/internal/model/student"
	cartService "github.com/zhouzirui/recordhub/backend/internal/service/cart"
	eventService "github.com/zhouzirui/recordhub/backend/internal/service/events"
	recordService "github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/internal/validate"
	"github.com/zhouzirui/recordhub/backend/pkg/utils"
)

// Services groups everything the router exposes.
type Services struct {
	Students     *recordService.Service[student.Student]
	Applications *recordService.Service[application.Application]
	Notes        *recordService.Service[note.Note]
	Contacts     *recordService.Service[contact.Contact]
	Cart         *cartService.Service
	Events       *eventService.Hub
}

// NewRouter wires HTTP routes to the record services.
func NewRouter(svcs Services, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		if svcs.Students != nil {
			records.New[student.Student, student.Patch](svcs.Students).
				RegisterRoutes(api, "/students")
		}

		if svcs.Applications != nil {
			records.New(svcs.Applications,
				records.WithListFilter[application.Application, application.Patch](filterByStatus),
			).RegisterRoutes(api, "/applications")
		}

		if svcs.Notes != nil {
			records.New[note.Note, note.Patch](svcs.Notes).
				RegisterRoutes(api, "/notes")
		}

		if svcs.Contacts != nil {
			records.New(svcs.Contacts,
				records.WithSearch[contact.Contact, contact.Patch](searchByName),
			).RegisterRoutes(api, "/contacts")
		}

		if svcs.Cart != nil {
			cartHandler.New(svcs.Cart).RegisterRoutes(api)
		}

		if svcs.Events != nil {
			eventsHandler.New(svcs.Events).RegisterRoutes(api)
		}
	})

	return r
}

// filterByStatus 按 ?status= 过滤求职记录
func filterByStatus(q url.Values) (func(application.Application) bool, error) {
	raw, ok := q["status"]
	if !ok {
		return nil, nil
	}
	status, err := application.ParseStatus(strings.TrimSpace(firstValue(raw)))
	if err != nil {
		return nil, err
	}
	return func(a application.Application) bool { return a.Status == status }, nil
}

// searchByName 按姓名子串（不区分大小写）搜索联系人
func searchByName(q url.Values) (func(contact.Contact) bool, error) {
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		return nil, validate.Errorf("name", "query parameter is required")
	}
	return func(c contact.Contact) bool { return c.NameContains(name) }, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

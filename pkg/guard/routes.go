package guard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlements/pkg/entitlement"
	"github.com/dmitrymomot/entitlements/pkg/logger"
	"github.com/dmitrymomot/entitlements/pkg/plan"
	"github.com/dmitrymomot/entitlements/pkg/usage"
)

// maxBodySize caps evaluation request bodies.
const maxBodySize = 64 << 10

type api struct {
	engine *entitlement.Engine
	log    *slog.Logger
	trust  TrustFunc
}

// TrustFunc reports whether a request may assert super-admin rights in its body.
type TrustFunc func(r *http.Request) bool

// RoutesOption configures Routes.
type RoutesOption func(*api)

// WithOverrideTrust honours "super_admin" in evaluation bodies of requests that
// trust accepts. Without it the flag is dropped and every body is evaluated as a
// regular subject.
func WithOverrideTrust(trust TrustFunc) RoutesOption {
	return func(a *api) { a.trust = trust }
}

// Routes exposes the engine over HTTP:
//
//	POST /evaluate                  evaluate an entitlement.Request
//	GET  /usage                     usage of the context subject, or of ?user_id=&plan_id=
//	GET  /plans                     the catalog in rank order
//	GET  /plans/{from}/compare/{to} what moving between two plans gains and loses
//
// The API trusts the subject it is given and performs no authentication: mount it
// only where trusted backends can reach it.
func Routes(engine *entitlement.Engine, log *slog.Logger, opts ...RoutesOption) chi.Router {
	if log == nil {
		log = logger.Discard()
	}
	a := &api{engine: engine, log: log}
	for _, opt := range opts {
		opt(a)
	}

	r := chi.NewRouter()
	r.Post("/evaluate", a.evaluate)
	r.Get("/usage", a.usage)
	r.Get("/plans", a.plans)
	r.Get("/plans/{from}/compare/{to}", a.compare)
	return r
}

type evaluateResponse struct {
	Decision entitlement.Decision `json:"decision"`
	Outcome  Outcome              `json:"outcome"`
}

func (a *api) evaluate(w http.ResponseWriter, r *http.Request) {
	var req entitlement.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		a.badRequest(w, errors.Join(ErrInvalidBody, err))
		return
	}
	if req.SuperAdmin && (a.trust == nil || !a.trust(r)) {
		a.log.WarnContext(r.Context(), "super_admin flag ignored for untrusted caller",
			logger.UserID(req.UserID),
			slog.String("remote_addr", r.RemoteAddr),
		)
		req.SuperAdmin = false
	}

	d, err := a.engine.Check(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		Decision: d,
		Outcome:  Resolve(a.engine.Catalog(), d),
	})
}

func (a *api) usage(w http.ResponseWriter, r *http.Request) {
	subj, ok := SubjectFromRequest(r)
	if !ok {
		q := r.URL.Query()
		id, err := uuid.Parse(q.Get("user_id"))
		if err != nil {
			a.badRequest(w, errors.Join(ErrInvalidUserID, err))
			return
		}
		subj = entitlement.Subject{UserID: id, PlanID: plan.ID(q.Get("plan_id"))}
	}

	info, err := a.engine.Usage(r.Context(), subj)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *api) plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Catalog().Plans())
}

func (a *api) compare(w http.ResponseWriter, r *http.Request) {
	catalog := a.engine.Catalog()

	from, err := catalog.Plan(plan.ID(chi.URLParam(r, "from")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	to, err := catalog.Plan(plan.ID(chi.URLParam(r, "to")))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, plan.Compare(&from, &to))
}

func (a *api) badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// fail maps engine errors to statuses. Caller mistakes are echoed back;
// anything else is logged and hidden.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entitlement.ErrInvalidRequest):
		a.badRequest(w, err)
	case errors.Is(err, plan.ErrUnknownPlan), errors.Is(err, plan.ErrUnknownLimit):
		a.log.WarnContext(r.Context(), "request for unknown catalog entry", logger.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, usage.ErrStoreUnavailable):
		a.log.ErrorContext(r.Context(), "usage store unavailable", logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "usage store unavailable"})
	default:
		a.log.ErrorContext(r.Context(), "request failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

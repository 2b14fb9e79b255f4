package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
)

// maxSyncIDs bounds the ids of one sync request.
const maxSyncIDs = 1000

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search and indexing API.
type Server struct {
	search        Searcher
	sync          Syncer
	reconcile     Reconciler
	health        HealthChecker
	catalog       Catalog
	logger        *zap.Logger
	defaultRows   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. reconcile can be nil when the ledger is disabled.
func NewServer(
	search Searcher,
	sync Syncer,
	reconcile Reconciler,
	health HealthChecker,
	catalog Catalog,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		sync:      sync,
		reconcile: reconcile,
		health:    health,
		catalog:   catalog,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		fieldErrorHandler,
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrUnknownClass, http.StatusBadRequest, CodeUnknownClass),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, CodeEngineUnavailable),
		sentinelHandler(domain.ErrWriteFailed, http.StatusBadGateway, CodeWriteFailed),
	}
	return s
}

// WithDefaultRows sets the page size of requests that ask for none.
func (s *Server) WithDefaultRows(rows int) *Server {
	s.defaultRows = rows
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/indexes/{index}", func(r gochi.Router) {
		r.Get("/search", s.SearchGet)
		r.Post("/search", s.SearchPost)
		r.Post("/sync", s.Sync)
		r.Delete("/records/{class}/{id}", s.DeleteRecord)
		r.Post("/reconcile", s.Reconcile)
		r.Get("/ledger", s.Ledger)
	})
}

// SearchPost handles POST /indexes/{index}/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	q, err := queryFromRequest(req, s.defaultRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}
	s.runSearch(w, r, q)
}

// SearchGet handles GET /indexes/{index}/search?q=&start=&rows=&highlight=&fuzzy=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	q, err := queryFromParams(params, s.defaultRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}
	s.runSearch(w, r, q)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, q *query.Query) {
	res, err := s.search.Search(r.Context(), gochi.URLParam(r, "index"), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFrom(res, q.Highlight()))
}

// Sync handles POST /indexes/{index}/sync.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Class == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "class is required")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "ids must not be empty")
		return
	}
	if len(req.IDs) > maxSyncIDs {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("too many ids (max %d)", maxSyncIDs))
		return
	}

	idx, err := s.catalog.Get(gochi.URLParam(r, "index"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	res, err := s.sync.SyncRecords(r.Context(), idx, req.Class, req.IDs)
	resp := SyncResponse{Indexed: nonNil(res.Indexed), Removed: nonNil(res.Removed)}
	if len(res.Failed) > 0 {
		resp.Failed = res.Failed
	}
	switch {
	case partialWrite(err):
		writeJSON(w, http.StatusMultiStatus, resp)
	case err != nil:
		s.handleDomainError(w, err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// DeleteRecord handles DELETE /indexes/{index}/records/{class}/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	class := gochi.URLParam(r, "class")
	id, err := strconv.ParseInt(gochi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "id must be a positive integer")
		return
	}
	idx, err := s.catalog.Get(gochi.URLParam(r, "index"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.sync.Remove(r.Context(), idx, domrec.Identity(class, id)); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile handles POST /indexes/{index}/reconcile.
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	if s.reconcile == nil {
		writeError(w, http.StatusNotImplemented, CodeReconcileDisabled, "ledger is disabled")
		return
	}
	rep, err := s.reconcile.Retry(r.Context(), gochi.URLParam(r, "index"))
	resp := ReconcileResponse{Index: rep.Index, Retried: rep.Retried, Cleared: rep.Cleared, Failed: rep.Failed}
	switch {
	case partialWrite(err):
		writeJSON(w, http.StatusMultiStatus, resp)
	case err != nil:
		s.handleDomainError(w, err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// partialWrite reports whether err only carries per-record failures. An engine
// outage or a failed bulk request goes through handleDomainError instead.
func partialWrite(err error) bool {
	return errors.Is(err, domain.ErrWriteFailed) &&
		!errors.Is(err, domain.ErrEngineUnavailable) &&
		!indexinguc.IsRequestFailure(err)
}

// Ledger handles GET /indexes/{index}/ledger.
func (s *Server) Ledger(w http.ResponseWriter, r *http.Request) {
	if s.reconcile == nil {
		writeError(w, http.StatusNotImplemented, CodeReconcileDisabled, "ledger is disabled")
		return
	}
	index := gochi.URLParam(r, "index")
	if _, err := s.catalog.Get(index); err != nil {
		s.handleDomainError(w, err)
		return
	}
	pending, err := s.reconcile.Pending(r.Context(), index)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := LedgerResponse{Index: index, Pending: make(map[string]int64, len(pending))}
	for op, n := range pending {
		resp.Pending[string(op)] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	values := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", values, &p.Q); err != nil {
		return p, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "start", values, &p.Start); err != nil {
		return p, fmt.Errorf("invalid format for parameter start: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "rows", values, &p.Rows); err != nil {
		return p, fmt.Errorf("invalid format for parameter rows: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "highlight", values, &p.Highlight); err != nil {
		return p, fmt.Errorf("invalid format for parameter highlight: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "fuzzy", values, &p.Fuzzy); err != nil {
		return p, fmt.Errorf("invalid format for parameter fuzzy: %w", err)
	}
	return p, nil
}

// queryFromParams turns GET parameters into a query. Each whitespace-separated
// word of q is one term; an empty q matches everything.
func queryFromParams(p SearchParams, defaultRows int) (*query.Query, error) {
	q := query.New()
	if p.Q != nil {
		for _, word := range strings.Fields(*p.Q) {
			var err error
			if derefBool(p.Fuzzy) {
				err = q.AddFuzzyTerm(word, nil, 1)
			} else {
				err = q.AddTerm(word, nil, 1)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if err := q.SetStart(derefInt(p.Start)); err != nil {
		return nil, err
	}
	if err := q.SetRows(orDefault(derefInt(p.Rows), defaultRows)); err != nil {
		return nil, err
	}
	q.SetHighlight(derefBool(p.Highlight))
	return q, nil
}

func queryFromRequest(req SearchRequest, defaultRows int) (*query.Query, error) {
	q := query.New()
	for _, t := range req.Terms {
		var err error
		if t.Fuzzy {
			err = q.AddFuzzyTerm(t.Text, t.Fields, t.Boost)
		} else {
			err = q.AddTerm(t.Text, t.Fields, t.Boost)
		}
		if err != nil {
			return nil, err
		}
	}
	for _, f := range req.Filters {
		if err := q.AddFilter(f.Field, f.Value); err != nil {
			return nil, err
		}
	}
	for _, f := range req.OrFilters {
		if err := q.AddOrFilter(f.Field, f.Value); err != nil {
			return nil, err
		}
	}
	for _, b := range req.BoostedFields {
		if err := q.AddBoostedField(b.Field, b.Boost); err != nil {
			return nil, err
		}
	}
	for _, sf := range req.Sort {
		if err := q.AddSort(sf.Field, query.Order(sf.Order)); err != nil {
			return nil, err
		}
	}
	if err := q.SetStart(req.Start); err != nil {
		return nil, err
	}
	if err := q.SetRows(orDefault(req.Rows, defaultRows)); err != nil {
		return nil, err
	}
	q.SetHighlight(req.Highlight)
	return q, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

// orDefault returns def when v is zero.
func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexNotFound,
		domain.ErrNotFound,
		domain.ErrUnknownField,
		domain.ErrUnknownClass,
		domain.ErrInvalidQuery,
		domain.ErrEngineUnavailable,
		domain.ErrWriteFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// fieldErrorHandler reports the offending field name of an unknown field.
func fieldErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrUnknownField) {
		return false
	}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		msg = fe.Error()
	}
	writeError(w, http.StatusBadRequest, CodeUnknownField, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

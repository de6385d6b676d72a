package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"assetview/internal/core"
	applog "assetview/internal/log"
	"assetview/internal/seed"
)

// SeedResponse is the body of POST /api/v1/seed.
type SeedResponse struct {
	Message  string   `json:"message"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "healthy"}).Write(w)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := ParsePageRequest(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	page, err := s.source.ListPage(ctx, req)
	if err != nil {
		s.writeSourceError(w, r, err, applog.OpList)
		return
	}

	NewJSONResponse().Body(page).Write(w)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wid, err := ParseWID(chi.URLParam(r, "wid"))
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	asset, err := s.source.GetAsset(ctx, wid)
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError("Asset not found").Write(w)
		return
	}
	if err != nil {
		s.writeSourceError(w, r, err, applog.OpGet)
		return
	}

	NewJSONResponse().Body(asset).Write(w)
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.importer == nil {
		NotImplementedError("Seeding is not supported by this backend").Write(w)
		return
	}

	res, err := seed.Run(ctx, s.importer, s.seedFile)
	if errors.Is(err, seed.ErrSeedFileNotFound) {
		NotFoundError(fmt.Sprintf("Seed file not found: %s", s.seedFile)).Write(w)
		return
	}
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogError(ctx, "Seed failed", err, applog.OpSeed, nil)
		InternalServerError(fmt.Sprintf("Error seeding database: %v", err)).Write(w)
		return
	}

	NewJSONResponse().Body(SeedResponse{
		Message:  seed.Message(res),
		Inserted: res.Inserted,
		Skipped:  res.Skipped,
		Errors:   res.Errors,
	}).Write(w)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := ParseFilters(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	ov, err := s.overview.Overview(ctx, f)
	if err != nil {
		s.writeSourceError(w, r, err, applog.OpOverview)
		return
	}

	NewJSONResponse().Body(ov).Write(w)
}

// writeSourceError maps a retrieval failure to 502 and anything else to 500.
func (s *Server) writeSourceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	ctx := r.Context()
	fields := applog.NewFields()

	var re *core.RetrievalError
	if errors.As(err, &re) {
		fields[applog.FieldPage] = re.Page
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogError(ctx, "Asset retrieval failed", err, op, fields)
		BadGatewayError(re.Error()).Write(w)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogError(ctx, "Request failed", err, op, fields)
	InternalServerError("Internal server error").Write(w)
}

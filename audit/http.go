package audit

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/focuskit/internal/kit"
	"github.com/hazyhaar/focuskit/internal/shield"
)

// Handler returns the HTTP API:
//
//	GET    /health
//	POST   /v1/audit            HTML body (or JSON {"html", "source"}), ?source=
//	POST   /v1/audit/url        JSON {"url", "live"}
//	GET    /v1/reports          ?source= &issues_only= &limit=
//	GET    /v1/reports/{id}
//	DELETE /v1/reports/{id}
//	GET    /v1/stats
//	GET    /v1/calls            ?endpoint= &status= &limit=
//	GET    /v1/metrics          ?name= &limit=
func (a *Auditor) Handler() http.Handler {
	eps := a.endpoints()

	r := chi.NewRouter()
	for _, mw := range shield.APIStack(a.logger, a.cfg.HTTP.MaxBodyBytes) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/audit", func(w http.ResponseWriter, r *http.Request) {
			req := &auditHTMLRequest{Source: r.URL.Query().Get("source")}
			if isJSON(r) {
				if err := json.NewDecoder(r.Body).Decode(req); err != nil {
					writeError(w, decodeStatus(err), err)
					return
				}
			} else {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					writeError(w, decodeStatus(err), err)
					return
				}
				req.HTML = string(body)
			}
			serve(w, r, eps.auditHTML, req, http.StatusCreated)
		})

		r.Post("/audit/url", func(w http.ResponseWriter, r *http.Request) {
			var req auditURLRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, decodeStatus(err), err)
				return
			}
			serve(w, r, eps.auditURL, &req, http.StatusCreated)
		})

		r.Get("/reports", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			issuesOnly, _ := strconv.ParseBool(q.Get("issues_only"))
			serve(w, r, eps.reportList, &reportListRequest{
				Source:     q.Get("source"),
				IssuesOnly: issuesOnly,
				Limit:      queryInt(r, "limit", 0),
			}, http.StatusOK)
		})

		r.Get("/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, eps.reportGet, &reportGetRequest{ID: chi.URLParam(r, "id")}, http.StatusOK)
		})

		r.Delete("/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := a.DeleteReport(r.Context(), chi.URLParam(r, "id")); err != nil {
				writeError(w, errorStatus(err), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, eps.issueStats, nil, http.StatusOK)
		})

		r.Get("/calls", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			calls, err := a.Calls(r.Context(), CallFilter{
				Endpoint: q.Get("endpoint"),
				Status:   q.Get("status"),
				Limit:    queryInt(r, "limit", 0),
			})
			if err != nil {
				writeError(w, errorStatus(err), err)
				return
			}
			writeJSON(w, http.StatusOK, calls)
		})

		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			ms, err := a.Metrics(r.Context(), r.URL.Query().Get("name"), queryInt(r, "limit", 100))
			if err != nil {
				writeError(w, errorStatus(err), err)
				return
			}
			writeJSON(w, http.StatusOK, ms)
		})
	})

	return r
}

func serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any, okStatus int) {
	resp, err := ep(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, okStatus, resp)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func decodeStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

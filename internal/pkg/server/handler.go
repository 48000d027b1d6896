package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frain-dev/pgtime"
	"github.com/frain-dev/pgtime/datastore"
	"github.com/frain-dev/pgtime/internal/scheduler"
	"github.com/frain-dev/pgtime/util"
)

// Controller is the scheduler surface exposed over HTTP.
type Controller interface {
	State() scheduler.State
	LastReport() *datastore.PassReport
	Wake()
	Reload()
}

func NewHandler(ctrl Controller, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if ctrl.State() == scheduler.Stopped {
			_ = render.Render(w, r, util.NewErrorResponse("scheduler stopped", http.StatusServiceUnavailable))
			return
		}
		_ = render.Render(w, r, util.NewServerResponse(fmt.Sprintf("pgtime %v", pgtime.GetVersion()), nil, http.StatusOK))
	})

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	router.Post("/wake", func(w http.ResponseWriter, r *http.Request) {
		ctrl.Wake()
		_ = render.Render(w, r, util.NewServerResponse("pass requested", nil, http.StatusAccepted))
	})

	router.Post("/reload", func(w http.ResponseWriter, r *http.Request) {
		ctrl.Reload()
		_ = render.Render(w, r, util.NewServerResponse("reload requested", nil, http.StatusAccepted))
	})

	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, newStatusView(ctrl))
	})

	return router
}

type statusView struct {
	State    string    `json:"state"`
	Version  string    `json:"version"`
	LastPass *passView `json:"last_pass"`
}

type passView struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Interrupted bool          `json:"interrupted"`
	Failures    int           `json:"failures"`
	Outcomes    []outcomeView `json:"outcomes"`
}

type outcomeView struct {
	datastore.MaintenanceOutcome
	Error string `json:"error,omitempty"`
}

func newStatusView(ctrl Controller) statusView {
	v := statusView{State: ctrl.State().String(), Version: pgtime.GetVersion()}

	report := ctrl.LastReport()
	if report == nil {
		return v
	}

	pv := &passView{
		ID:          report.ID.String(),
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
		Interrupted: report.Interrupted,
		Failures:    report.Failures(),
		Outcomes:    make([]outcomeView, 0, len(report.Outcomes)),
	}

	for _, o := range report.Outcomes {
		ov := outcomeView{MaintenanceOutcome: o}
		if o.Error != nil {
			ov.Error = o.Error.Error()
		}
		pv.Outcomes = append(pv.Outcomes, ov)
	}

	v.LastPass = pv
	return v
}

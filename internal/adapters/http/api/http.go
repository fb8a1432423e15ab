// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DealDependencies
	LeaderboardDependencies
	ContestDependencies
	NotificationDependencies
	ExportDependencies
	TVDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	dealsHandler         *DealsHandler
	leaderboardHandler   *LeaderboardHandler
	contestsHandler      *ContestsHandler
	notificationsHandler *NotificationsHandler
	exportHandler        *ExportHandler
	tvHandler            *TVHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// leaderboard page size; 0 means uncapped.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(deps),
		dealsHandler:         NewDealsHandler(deps),
		leaderboardHandler:   NewLeaderboardHandler(deps, maxLimit),
		contestsHandler:      NewContestsHandler(deps),
		notificationsHandler: NewNotificationsHandler(deps),
		exportHandler:        NewExportHandler(deps),
		tvHandler:            NewTVHandler(deps),
	}
}

// Register attaches all HTTP routes to mux. Unknown methods on a known path
// are answered with 405 by the mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /deals", MetricsMiddleware(s.dealsHandler.HandlePostDeal, "deals"))
	mux.HandleFunc("PATCH /deals/{id}", MetricsMiddleware(s.dealsHandler.HandlePatchDeal, "deal"))

	mux.HandleFunc("GET /contests/current", MetricsMiddleware(s.contestsHandler.HandleGetCurrent, "current_contest"))
	mux.HandleFunc("PUT /contests/current", MetricsMiddleware(s.contestsHandler.HandleSelectCurrent, "current_contest"))
	mux.HandleFunc("DELETE /contests/current", MetricsMiddleware(s.contestsHandler.HandleClearCurrent, "current_contest"))
	mux.HandleFunc("GET /contests/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /contests/{id}/agents/{agentId}/deals", MetricsMiddleware(s.contestsHandler.HandleGetAgentDeals, "agent_deals"))
	mux.HandleFunc("GET /contests/{id}/battles", MetricsMiddleware(s.contestsHandler.HandleGetBattles, "battles"))
	mux.HandleFunc("GET /contests/{id}/countdown", MetricsMiddleware(s.contestsHandler.HandleGetCountdown, "countdown"))

	mux.HandleFunc("GET /notifications", MetricsMiddleware(s.notificationsHandler.HandleGetNotifications, "notifications"))
	mux.HandleFunc("POST /notifications/{id}/read", MetricsMiddleware(s.notificationsHandler.HandleMarkRead, "notification_read"))

	mux.HandleFunc("GET /export/{file}", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
	mux.HandleFunc("GET /tv", MetricsMiddleware(s.tvHandler.HandleGetTV, "tv"))
}

// dealRequest mirrors the OpenAPI schema for POST /deals.
type dealRequest struct {
	ID              string          `json:"id"`
	AgentID         string          `json:"agent_id"`
	ContestID       string          `json:"contest_id"`
	Premium         decimal.Decimal `json:"premium"`
	LinesOfBusiness []string        `json:"lines_of_business"`
	Notes           string          `json:"notes"`
	Date            string          `json:"date"`
}

func (d dealRequest) validate() error {
	switch {
	case strings.TrimSpace(d.AgentID) == "":
		return errors.New("missing agent_id")
	case strings.TrimSpace(d.ContestID) == "":
		return errors.New("missing contest_id")
	case !d.Premium.IsPositive():
		return errors.New("premium must be greater than zero")
	case len(d.LinesOfBusiness) == 0:
		return errors.New("at least one line of business is required")
	}
	for _, lob := range d.LinesOfBusiness {
		if strings.TrimSpace(lob) == "" {
			return errors.New("empty line of business")
		}
	}
	if d.Date != "" {
		if _, err := parseDate(d.Date); err != nil {
			return err
		}
	}
	return nil
}

// submission converts a validated request. A missing id is filled by newID.
func (d dealRequest) submission(newID func() string) model.Submission {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = newID()
	}
	date, _ := parseDate(d.Date)
	return model.Submission{
		ID:              id,
		AgentID:         d.AgentID,
		ContestID:       d.ContestID,
		Premium:         d.Premium,
		LinesOfBusiness: d.LinesOfBusiness,
		Notes:           d.Notes,
		Date:            date,
	}
}

// dealPatchRequest mirrors the OpenAPI schema for PATCH /deals/{id}. Absent
// fields are left unchanged.
type dealPatchRequest struct {
	Status          *model.DealStatus `json:"status"`
	Premium         *decimal.Decimal  `json:"premium"`
	LinesOfBusiness []string          `json:"lines_of_business"`
	Notes           *string           `json:"notes"`
	Date            *string           `json:"date"`
}

func (p dealPatchRequest) validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return errors.New("status must be pending, approved or rejected")
	}
	if p.Premium != nil && !p.Premium.IsPositive() {
		return errors.New("premium must be greater than zero")
	}
	if p.LinesOfBusiness != nil && len(p.LinesOfBusiness) == 0 {
		return errors.New("at least one line of business is required")
	}
	if p.Date != nil {
		if _, err := parseDate(*p.Date); err != nil {
			return err
		}
	}
	if p.Status == nil && p.Premium == nil && p.LinesOfBusiness == nil && p.Notes == nil && p.Date == nil {
		return errors.New("empty patch")
	}
	return nil
}

func (p dealPatchRequest) patch() model.DealPatch {
	patch := model.DealPatch{
		Status:          p.Status,
		Premium:         p.Premium,
		LinesOfBusiness: p.LinesOfBusiness,
		Notes:           p.Notes,
	}
	if p.Date != nil {
		date, _ := parseDate(*p.Date)
		patch.Date = &date
	}
	return patch
}

// parseDate accepts RFC3339 timestamps and bare YYYY-MM-DD days. An empty
// string yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.New("invalid date; must be RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type updateResponse struct {
	ID      string `json:"id"`
	Updated bool   `json:"updated"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

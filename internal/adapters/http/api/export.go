package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/battlegrounds/internal/export"
)

// ExportDependencies defines the CSV export operation.
type ExportDependencies interface {
	Export(ctx context.Context, kind export.Kind, contestID string, w io.Writer) error
}

// ExportHandler handles CSV downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export/{deals|leaderboard|agents}.csv with an
// optional contest_id query parameter.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	name, ok := strings.CutSuffix(r.PathValue("file"), ".csv")
	if !ok {
		http.NotFound(w, r)
		return
	}
	kind, err := export.ParseKind(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Buffer so a failed export still gets a proper error status.
	var buf bytes.Buffer
	if err := h.deps.Export(r.Context(), kind, r.URL.Query().Get("contest_id"), &buf); err != nil {
		if errors.Is(err, export.ErrUnknownKind) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

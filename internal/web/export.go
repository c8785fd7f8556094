package web

import (
	"net/http"
	"time"

	"coursegrid/internal/export"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
)

// handleExportICS streams the stored schedule as an .ics download. Term
// bounds and break weeks come from configuration; records that cannot be
// exported are skipped inside the export package.
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	records, err := s.st.List(r.Context())
	if err != nil {
		appLog.Error("export: list events failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	body := export.Serialize(records, s.exportOptions())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// exportOptions translates the export configuration, dropping unparseable
// dates with a warning instead of failing the download.
func (s *Server) exportOptions() export.Options {
	opts := export.Options{}

	opts.TermStart = parseConfigDate(s.cfg.Export.TermStart, "term_start")
	opts.TermEnd = parseConfigDate(s.cfg.Export.TermEnd, "term_end")

	for _, br := range s.cfg.Export.BreakWeeks {
		start := parseConfigDate(br.Start, "break_weeks.start")
		end := parseConfigDate(br.End, "break_weeks.end")
		if start.IsZero() || end.IsZero() {
			continue
		}
		opts.Breaks = append(opts.Breaks, export.DateRange{Start: start, End: end})
	}
	return opts
}

func parseConfigDate(s, field string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, err := model.ParseDate(s)
	if err != nil {
		appLog.Warn("ignoring unparseable date in export config", "field", field, "value", s)
		return time.Time{}
	}
	return d
}

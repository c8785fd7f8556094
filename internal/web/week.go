package web

import (
	"encoding/json"
	"net/http"
	"time"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/schedule"
	"coursegrid/internal/timeutil"
)

// blockDTO is one placed occurrence: the record plus the geometry the
// rendering surface consumes directly.
type blockDTO struct {
	Event eventDTO `json:"event"`

	Date       string `json:"date"`
	StartLabel string `json:"startLabel"`
	EndLabel   string `json:"endLabel"`
	CourseCode string `json:"courseCode,omitempty"`

	Top             float64 `json:"top"`
	Height          float64 `json:"height"`
	Left            float64 `json:"left"`
	Width           float64 `json:"width"`
	ZIndex          int     `json:"zIndex"`
	PositionInGroup int     `json:"positionInGroup"`
	GroupSize       int     `json:"groupSize"`

	Hidden bool `json:"hidden,omitempty"`
}

type dayDTO struct {
	Date    string     `json:"date"`
	Weekday string     `json:"weekday"`
	Blocks  []blockDTO `json:"blocks"`
}

type conflictDTO struct {
	A    eventDTO `json:"a"`
	B    eventDTO `json:"b"`
	Day  string   `json:"day"`
	Date string   `json:"date,omitempty"`
}

type weekResponse struct {
	Anchor    string         `json:"anchor"`
	Days      []dayDTO       `json:"days"`
	Conflicts []conflictDTO  `json:"conflicts"`
	Grid      map[string]any `json:"grid"`
	Visible   []string       `json:"visible"`
	Stats     map[string]int `json:"stats"`
}

// handleWeek resolves and lays out one week.
//
// GET /api/week?anchor=YYYY-MM-DD
//   - anchor: any date inside the wanted week; defaults to today. The
//     containing Monday-anchored week is resolved.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	anchorParam := r.URL.Query().Get("anchor")
	anchor := model.CivilDate(time.Now())
	if anchorParam != "" {
		d, err := model.ParseDate(anchorParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
			return
		}
		anchor = d
	}
	cacheKey := model.FormatDate(model.MondayOf(anchor))

	// Fast path: fresh cached response for this week.
	s.weekMu.Lock()
	if e, ok := s.weekCache[cacheKey]; ok && time.Since(e.updatedAt) < weekCacheTTL {
		s.weekMu.Unlock()
		writeJSON(w, http.StatusOK, e.resp)
		return
	}
	s.weekMu.Unlock()

	records, err := s.st.List(r.Context())
	if err != nil {
		appLog.Error("week: list events failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	visible, err := s.visibilitySet(r)
	if err != nil {
		appLog.Error("week: load visibility failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load visibility")
		return
	}

	resp := buildWeekResponse(records, anchor, visible, s.layoutConfig())
	resp.Grid = map[string]any{
		"dayStartHour":    s.cfg.Grid.DayStartHour,
		"dayEndHour":      s.cfg.Grid.DayEndHour,
		"slotHeightPx":    s.cfg.Grid.SlotHeightPx,
		"minEventHeight":  s.cfg.Grid.MinEventHeightPx,
		"columnMarginPct": s.cfg.Grid.ColumnMarginPct,
	}

	s.weekMu.Lock()
	s.weekCache[cacheKey] = weekCacheEntry{resp: resp, updatedAt: time.Now()}
	s.weekMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// buildWeekResponse runs the engine and converts its output to DTOs.
func buildWeekResponse(records []model.EventRecord, anchor time.Time, visible schedule.CodeSet, layout schedule.LayoutConfig) weekResponse {
	ws := schedule.BuildWeek(records, anchor, visible, layout)
	st := schedule.ComputeStats(records, visible)

	resp := weekResponse{
		Anchor:  model.FormatDate(ws.Week.Anchor),
		Days:    make([]dayDTO, 0, 7),
		Visible: visible.Codes(),
		Stats: map[string]int{
			"courses":   st.Courses,
			"conflicts": st.Conflicts,
		},
	}

	for d := 0; d < 7; d++ {
		day := ws.Days[d]
		dto := dayDTO{
			Date:    model.FormatDate(day.Date),
			Weekday: model.WeekdayNames[d],
			Blocks:  make([]blockDTO, 0, len(day.Blocks)),
		}
		for _, b := range day.Blocks {
			code, _ := schedule.RecordCourseCode(b.Occurrence.Record)
			dto.Blocks = append(dto.Blocks, blockDTO{
				Event:           toEventDTO(b.Occurrence.Record),
				Date:            model.FormatDate(b.Occurrence.Date),
				StartLabel:      timeutil.FormatTwelveHour(b.Occurrence.Record.StartTime),
				EndLabel:        timeutil.FormatTwelveHour(b.Occurrence.Record.EndTime),
				CourseCode:      code,
				Top:             b.Geometry.Top,
				Height:          b.Geometry.Height,
				Left:            b.Geometry.Left,
				Width:           b.Geometry.Width,
				ZIndex:          b.Geometry.ZIndex,
				PositionInGroup: b.Geometry.PositionInGroup,
				GroupSize:       b.Geometry.GroupSize,
				Hidden:          b.Hidden,
			})
		}
		resp.Days = append(resp.Days, dto)
	}

	resp.Conflicts = make([]conflictDTO, 0, len(ws.Conflicts))
	for _, p := range ws.Conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictDTO{
			A:    toEventDTO(p.A),
			B:    toEventDTO(p.B),
			Day:  p.Day,
			Date: model.FormatDate(p.Date),
		})
	}

	return resp
}

// handleStats reports the navigation-independent schedule summary.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.st.List(r.Context())
	if err != nil {
		appLog.Error("stats: list events failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	visible, err := s.visibilitySet(r)
	if err != nil {
		appLog.Error("stats: load visibility failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load visibility")
		return
	}

	st := schedule.ComputeStats(records, visible)
	pairs := make([]conflictDTO, 0, len(st.Pairs))
	for _, p := range st.Pairs {
		pairs = append(pairs, conflictDTO{A: toEventDTO(p.A), B: toEventDTO(p.B), Day: p.Day})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"courses":   st.Courses,
		"conflicts": st.Conflicts,
		"pairs":     pairs,
	})
}

// visibilitySet loads the stored visibility filter.
func (s *Server) visibilitySet(r *http.Request) (schedule.CodeSet, error) {
	codes, err := s.st.GetVisibility(r.Context())
	if err != nil {
		return nil, err
	}
	return schedule.NewCodeSet(codes...), nil
}

func (s *Server) handleGetVisibility(w http.ResponseWriter, r *http.Request) {
	codes, err := s.st.GetVisibility(r.Context())
	if err != nil {
		appLog.Error("get visibility failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load visibility")
		return
	}
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

func (s *Server) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Codes []string `json:"codes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.st.SetVisibility(r.Context(), body.Codes); err != nil {
		appLog.Error("set visibility failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save visibility")
		return
	}

	s.invalidateWeekCache()
	w.WriteHeader(http.StatusNoContent)
}

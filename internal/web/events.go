package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/store"
	"coursegrid/internal/timeutil"
)

// recurrenceDTO is the flat JSON shape of a recurrence.
type recurrenceDTO struct {
	Pattern       string `json:"pattern"`
	DayOfWeek     string `json:"dayOfWeek,omitempty"`
	ReferenceDate string `json:"referenceDate,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
}

// eventDTO is the JSON shape of an event record.
type eventDTO struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"title"`
	StartTime   string        `json:"startTime"`
	EndTime     string        `json:"endTime"`
	Description string        `json:"description,omitempty"`
	Professor   string        `json:"professor,omitempty"`
	Location    string        `json:"location,omitempty"`
	Theme       string        `json:"theme,omitempty"`
	Recurrence  recurrenceDTO `json:"recurrence"`
}

func toFields(d recurrenceDTO) model.RecurrenceFields {
	return model.RecurrenceFields{
		Pattern:       d.Pattern,
		DayOfWeek:     d.DayOfWeek,
		ReferenceDate: d.ReferenceDate,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
	}
}

func toRecurrenceDTO(f model.RecurrenceFields) recurrenceDTO {
	return recurrenceDTO{
		Pattern:       f.Pattern,
		DayOfWeek:     f.DayOfWeek,
		ReferenceDate: f.ReferenceDate,
		StartDate:     f.StartDate,
		EndDate:       f.EndDate,
	}
}

func toEventDTO(rec model.EventRecord) eventDTO {
	return eventDTO{
		ID:          rec.ID,
		Title:       rec.Title,
		StartTime:   rec.StartTime,
		EndTime:     rec.EndTime,
		Description: rec.Description,
		Professor:   rec.Professor,
		Location:    rec.Location,
		Theme:       rec.Theme,
		Recurrence:  toRecurrenceDTO(model.FlattenRecurrence(rec.Recurrence)),
	}
}

// fromEventDTO validates a create payload. Stored legacy data may be broken,
// but new records are rejected up front: title present, parseable times in
// order, buildable recurrence.
func fromEventDTO(d eventDTO) (model.EventRecord, error) {
	if d.Title == "" {
		return model.EventRecord{}, errors.New("title is required")
	}
	startMin, ok := timeutil.ParseMinutes(d.StartTime)
	if !ok {
		return model.EventRecord{}, fmt.Errorf("invalid startTime %q", d.StartTime)
	}
	endMin, ok := timeutil.ParseMinutes(d.EndTime)
	if !ok {
		return model.EventRecord{}, fmt.Errorf("invalid endTime %q", d.EndTime)
	}
	if startMin >= endMin {
		return model.EventRecord{}, errors.New("startTime must be before endTime")
	}
	switch d.Recurrence.Pattern {
	case "weekly", "biweekly":
		if _, ok := model.WeekdayIndex(d.Recurrence.DayOfWeek); !ok {
			return model.EventRecord{}, fmt.Errorf("invalid dayOfWeek %q", d.Recurrence.DayOfWeek)
		}
	}
	rec, err := toFields(d.Recurrence).Build()
	if err != nil {
		return model.EventRecord{}, err
	}

	return model.EventRecord{
		Title:       d.Title,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Description: d.Description,
		Professor:   d.Professor,
		Location:    d.Location,
		Theme:       d.Theme,
		Recurrence:  rec,
	}, nil
}

// eventPatchDTO carries a partial update; absent fields stay untouched.
type eventPatchDTO struct {
	Title       *string        `json:"title"`
	StartTime   *string        `json:"startTime"`
	EndTime     *string        `json:"endTime"`
	Description *string        `json:"description"`
	Professor   *string        `json:"professor"`
	Location    *string        `json:"location"`
	Theme       *string        `json:"theme"`
	Recurrence  *recurrenceDTO `json:"recurrence"`
}

func (d eventPatchDTO) toPatch() store.EventPatch {
	p := store.EventPatch{
		Title:       d.Title,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Description: d.Description,
		Professor:   d.Professor,
		Location:    d.Location,
		Theme:       d.Theme,
	}
	if d.Recurrence != nil {
		f := toFields(*d.Recurrence)
		p.Recurrence = &f
	}
	return p
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	records, err := s.st.List(r.Context())
	if err != nil {
		appLog.Error("list events failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	out := make([]eventDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toEventDTO(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": out,
		"total":  len(out),
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var d eventDTO
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec, err := fromEventDTO(d)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.st.Create(r.Context(), rec)
	if err != nil {
		appLog.Error("create event failed", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	s.invalidateWeekCache()
	writeJSON(w, http.StatusCreated, toEventDTO(created))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var d eventPatchDTO
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.st.Update(r.Context(), id, d.toPatch())
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
		return
	case err != nil:
		appLog.Error("update event failed", err, "id", id)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.invalidateWeekCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.st.Delete(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
		return
	case err != nil:
		appLog.Error("delete event failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	s.invalidateWeekCache()
	w.WriteHeader(http.StatusNoContent)
}

// handleBulkCreate imports many events at once (whole-schedule import).
// Invalid entries are collected into the response rather than failing the
// batch.
func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Events []eventDTO `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	valid := make([]model.EventRecord, 0, len(body.Events))
	type bulkError struct {
		Event eventDTO `json:"event"`
		Error string   `json:"error"`
	}
	var errs []bulkError
	for _, d := range body.Events {
		rec, err := fromEventDTO(d)
		if err != nil {
			errs = append(errs, bulkError{Event: d, Error: err.Error()})
			continue
		}
		valid = append(valid, rec)
	}

	created, err := s.st.BulkCreate(r.Context(), valid)
	if err != nil {
		appLog.Error("bulk create failed", err)
		writeError(w, http.StatusInternalServerError, "failed to import events")
		return
	}

	out := make([]eventDTO, 0, len(created))
	for _, rec := range created {
		out = append(out, toEventDTO(rec))
	}

	s.invalidateWeekCache()
	status := http.StatusCreated
	if len(out) == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{
		"created": out,
		"errors":  errs,
	})
}

func (s *Server) handleClearEvents(w http.ResponseWriter, r *http.Request) {
	n, err := s.st.Clear(r.Context())
	if err != nil {
		appLog.Error("clear events failed", err)
		writeError(w, http.StatusInternalServerError, "failed to clear events")
		return
	}

	s.invalidateWeekCache()
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

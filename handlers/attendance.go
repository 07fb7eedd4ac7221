package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"checkin/attendance"
	"checkin/config"
	"checkin/middleware"
	"checkin/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AttendanceHandler struct {
	config *config.Config
	engine *attendance.Engine
}

func NewAttendanceHandler(cfg *config.Config, engine *attendance.Engine) *AttendanceHandler {
	return &AttendanceHandler{config: cfg, engine: engine}
}

type checkInRequest struct {
	CheckInAt *time.Time `json:"check_in_at"`
	Note      string     `json:"note"`
}

type checkOutRequest struct {
	CheckOutAt *time.Time `json:"check_out_at"`
}

type manualCheckOutRequest struct {
	ManualCheckOutAt *time.Time `json:"manual_check_out_at"`
}

type paginationMeta struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int64 `json:"total_pages"`
	TotalRecords int64 `json:"total_records"`
	Limit        int   `json:"limit"`
}

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// profile resolves the engine profile for the authenticated user,
// applying the configured timezone fallback.
func (h *AttendanceHandler) profile(user *models.User) attendance.Profile {
	return attendance.Profile{
		UserID:              user.ID,
		Location:            attendance.ResolveLocation(user.Timezone, h.config.DefaultTimezone),
		WorkDurationMinutes: user.DefaultWorkDurationMinutes,
	}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	// An absent body means "check in now".
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if utf8.RuneCountInString(req.Note) > 500 {
		respondError(w, http.StatusBadRequest, "Note cannot exceed 500 characters")
		return
	}

	record, err := h.engine.CheckIn(r.Context(), h.profile(user), req.CheckInAt, req.Note)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "Checked in successfully", map[string]interface{}{
		"record": record,
	})
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	// An absent body means "check out now".
	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.engine.CheckOut(r.Context(), h.profile(user), req.CheckOutAt)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Checked out successfully", map[string]interface{}{
		"record": record,
	})
}

func (h *AttendanceHandler) ManualCheckOut(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	var req manualCheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ManualCheckOutAt == nil {
		respondError(w, http.StatusBadRequest, "Check-out time is required")
		return
	}

	record, err := h.engine.ManualCheckOut(r.Context(), h.profile(user), id, *req.ManualCheckOutAt)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Manual check-out recorded", map[string]interface{}{
		"record": record,
	})
}

func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	record, err := h.engine.Today(r.Context(), h.profile(user))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", map[string]interface{}{
		"record": record,
	})
}

func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	query, errMsg := parseHistoryQuery(r.URL.Query())
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	records, total, err := h.engine.History(r.Context(), h.profile(user), query)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	totalPages := total / int64(query.Limit)
	if total%int64(query.Limit) != 0 {
		totalPages++
	}

	respondSuccess(w, http.StatusOK, "", map[string]interface{}{
		"records": records,
		"pagination": paginationMeta{
			CurrentPage:  query.Page,
			TotalPages:   totalPages,
			TotalRecords: total,
			Limit:        query.Limit,
		},
	})
}

func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	record, err := h.engine.Get(r.Context(), h.profile(user), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", map[string]interface{}{
		"record": record,
	})
}

func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	if err := h.engine.Delete(r.Context(), h.profile(user), id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Attendance record deleted", nil)
}

func (h *AttendanceHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from != "" && !dayKeyPattern.MatchString(from) {
		respondError(w, http.StatusBadRequest, "From date must be in YYYY-MM-DD format")
		return
	}
	if to != "" && !dayKeyPattern.MatchString(to) {
		respondError(w, http.StatusBadRequest, "To date must be in YYYY-MM-DD format")
		return
	}

	profile := h.profile(user)
	records, err := h.engine.Export(r.Context(), profile, from, to)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	fromLabel, toLabel := from, to
	if fromLabel == "" {
		fromLabel = "all"
	}
	if toLabel == "" {
		toLabel = "all"
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attendance_%s_%s.csv", fromLabel, toLabel))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{"Date", "Check In", "Check Out", "Computed Check Out", "Manual Check Out", "Duration (mins)", "Status", "Note"})

	for _, record := range records {
		checkOut := "Not checked out"
		if record.CheckOutAt != nil {
			checkOut = displayTime(*record.CheckOutAt, profile.Location)
		}
		manualCheckOut := ""
		if record.ManualCheckOutAt != nil {
			manualCheckOut = displayTime(*record.ManualCheckOutAt, profile.Location)
		}
		writer.Write([]string{
			record.Date,
			displayTime(record.CheckInAt, profile.Location),
			checkOut,
			displayTime(record.ComputedCheckOutAt, profile.Location),
			manualCheckOut,
			strconv.Itoa(record.DurationMinutes),
			exportStatusLabel(record.Status),
			record.Note,
		})
	}
}

// displayTime renders an instant for export in the user's timezone.
func displayTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("1/2/2006, 3:04:05 PM")
}

func exportStatusLabel(status models.Status) string {
	switch status {
	case models.StatusManualOverride:
		return "Manual Override"
	case models.StatusCompleted:
		return "Completed"
	default:
		return "Active"
	}
}

// parseHistoryQuery validates the history filters. It returns a
// non-empty message on the first invalid parameter.
func parseHistoryQuery(values url.Values) (attendance.ListQuery, string) {
	query := attendance.ListQuery{Page: 1, Limit: 10, Sort: "-date"}

	if pageStr := values.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return query, "Page must be a positive integer"
		}
		query.Page = page
	}
	if limitStr := values.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return query, "Limit must be between 1 and 100"
		}
		query.Limit = limit
	}
	if from := values.Get("from"); from != "" {
		if !dayKeyPattern.MatchString(from) {
			return query, "From date must be in YYYY-MM-DD format"
		}
		query.From = from
	}
	if to := values.Get("to"); to != "" {
		if !dayKeyPattern.MatchString(to) {
			return query, "To date must be in YYYY-MM-DD format"
		}
		query.To = to
	}
	if status := values.Get("status"); status != "" {
		switch models.Status(status) {
		case models.StatusActive, models.StatusCompleted, models.StatusManualOverride:
			query.Status = models.Status(status)
		default:
			return query, "Status must be one of active, completed, manual_override"
		}
	}
	if sort := values.Get("sort"); sort != "" {
		query.Sort = sort
	}
	return query, ""
}

func (h *AttendanceHandler) respondEngineError(w http.ResponseWriter, err error) {
	var rejection *attendance.Rejection
	if errors.As(err, &rejection) {
		code := http.StatusBadRequest
		switch rejection.Kind {
		case attendance.KindConflict:
			code = http.StatusConflict
		case attendance.KindNotFound:
			code = http.StatusNotFound
		}
		if rejection.Record != nil {
			respondErrorWithData(w, code, rejection.Message, map[string]interface{}{
				"record": rejection.Record,
			})
			return
		}
		respondError(w, code, rejection.Message)
		return
	}
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/work-piyush006/lifesync-ai/internal/config"
	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
	"github.com/work-piyush006/lifesync-ai/internal/service/session"
)

// AlarmScheduler is the slice of the scheduler the API drives on alarm
// lifecycle changes.
type AlarmScheduler interface {
	ScheduleNext(ctx context.Context, alarm *domain.Alarm) error
	Cancel(ctx context.Context, alarmID int64)
}

// TonePool is the slice of the tone pool the API exposes.
type TonePool interface {
	Register(ctx context.Context, path string, kind domain.Tone) (*repo.ToneRecord, error)
	ListTones(ctx context.Context) ([]*repo.ToneRecord, error)
}

// SessionDirectory looks up live ring sessions.
type SessionDirectory interface {
	Active() []session.Snapshot
	Get(episodeID string) (*session.Session, error)
}

// Handlers holds the API's collaborators.
type Handlers struct {
	// store is the alarm repository.
	store repo.Repository
	// scheduler keeps wake registrations in step with alarm changes.
	scheduler AlarmScheduler
	// tones is the append-only tone pool.
	tones TonePool
	// sessions resolves episode ids to live sessions.
	sessions SessionDirectory
	// settings is the user settings block, read-only over the API.
	settings config.Settings
}

// NewHandlers wires the API handlers.
func NewHandlers(
	store repo.Repository,
	scheduler AlarmScheduler,
	tones TonePool,
	sessions SessionDirectory,
	settings config.Settings,
) *Handlers {
	return &Handlers{
		store:     store,
		scheduler: scheduler,
		tones:     tones,
		sessions:  sessions,
		settings:  settings,
	}
}

// geoPointPayload is the wire form of a coordinate pair.
type geoPointPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// alarmPayload is the wire form of an alarm.
type alarmPayload struct {
	ID         int64              `json:"id"`
	Label      string             `json:"label"`
	Hour       int                `json:"hour"`
	Minute     int                `json:"minute"`
	Tone       domain.Tone        `json:"tone"`
	ToneRef    string             `json:"tone_ref,omitempty"`
	Conditions []domain.Condition `json:"conditions"`
	GeoTarget  *geoPointPayload   `json:"geo_target,omitempty"`
	Enabled    bool               `json:"enabled"`
	CreatedAt  time.Time          `json:"created_at"`
}

// createAlarmRequest is the body of POST /v1/alarms.
type createAlarmRequest struct {
	Label      string             `json:"label"`
	Hour       int                `json:"hour"`
	Minute     int                `json:"minute"`
	Tone       domain.Tone        `json:"tone"`
	ToneRef    string             `json:"tone_ref"`
	Conditions []domain.Condition `json:"conditions"`
	GeoTarget  *geoPointPayload   `json:"geo_target"`
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled"`
}

// sessionPayload is the wire form of a ring-session snapshot.
type sessionPayload struct {
	EpisodeID             string `json:"episode_id"`
	AlarmID               int64  `json:"alarm_id"`
	Label                 string `json:"label"`
	Phase                 string `json:"phase"`
	FaceConfirmed         bool   `json:"face_confirmed"`
	StepCount             int    `json:"step_count"`
	GeoConfirmed          bool   `json:"geo_confirmed"`
	PlaybackActive        bool   `json:"playback_active"`
	GateSatisfied         bool   `json:"gate_satisfied"`
	GeoTargetMissing      bool   `json:"geo_target_missing"`
	PenaltyNoticeEligible bool   `json:"penalty_notice_eligible"`
	FallbackAlarm         bool   `json:"fallback_alarm"`
	StartedAt             string `json:"started_at"`
}

// tonePayload is the wire form of a tone-pool record.
type tonePayload struct {
	ID        int64       `json:"id"`
	Path      string      `json:"path"`
	Kind      domain.Tone `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// errorPayload carries a single error message.
type errorPayload struct {
	Error string `json:"error"`
}

func toAlarmPayload(a *domain.Alarm) alarmPayload {
	p := alarmPayload{
		ID:         a.ID,
		Label:      a.Label,
		Hour:       a.Hour,
		Minute:     a.Minute,
		Tone:       a.Tone,
		ToneRef:    a.ToneRef,
		Conditions: a.Conditions,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt,
	}

	if a.GeoTarget != nil {
		p.GeoTarget = &geoPointPayload{
			Latitude:  a.GeoTarget.Latitude,
			Longitude: a.GeoTarget.Longitude,
		}
	}

	return p
}

func toSessionPayload(s session.Snapshot) sessionPayload {
	return sessionPayload{
		EpisodeID:             s.EpisodeID,
		AlarmID:               s.AlarmID,
		Label:                 s.Label,
		Phase:                 string(s.Phase),
		FaceConfirmed:         s.Signals.FaceConfirmed,
		StepCount:             s.Signals.StepCount,
		GeoConfirmed:          s.Signals.GeoConfirmed,
		PlaybackActive:        s.PlaybackActive,
		GateSatisfied:         s.GateSatisfied,
		GeoTargetMissing:      s.GeoTargetMissing,
		PenaltyNoticeEligible: s.PenaltyNoticeEligible,
		FallbackAlarm:         s.FallbackAlarm,
		StartedAt:             s.StartedAt.Format(time.RFC3339),
	}
}

// handleListAlarms handles GET /v1/alarms.
func (h *Handlers) handleListAlarms(c *gin.Context) {
	ctx := c.Request.Context()

	alarms, err := h.store.List(ctx)
	if err != nil {
		h.internalError(c, "Failed to list alarms", err)

		return
	}

	payload := make([]alarmPayload, 0, len(alarms))
	for _, a := range alarms {
		payload = append(payload, toAlarmPayload(a))
	}

	c.JSON(http.StatusOK, payload)
}

// handleCreateAlarm handles POST /v1/alarms. A newly created enabled alarm
// is immediately registered with the scheduler; a registration failure is
// surfaced, never swallowed.
func (h *Handlers) handleCreateAlarm(c *gin.Context) {
	ctx := c.Request.Context()

	var req createAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorPayload{Error: err.Error()})

		return
	}

	alarm := &domain.Alarm{
		Label:      req.Label,
		Hour:       req.Hour,
		Minute:     req.Minute,
		Tone:       req.Tone,
		ToneRef:    req.ToneRef,
		Conditions: req.Conditions,
		Enabled:    true,
	}

	if req.Enabled != nil {
		alarm.Enabled = *req.Enabled
	}

	if req.GeoTarget != nil {
		alarm.GeoTarget = &domain.GeoPoint{
			Latitude:  req.GeoTarget.Latitude,
			Longitude: req.GeoTarget.Longitude,
		}
	}

	alarm.Normalize()

	if err := alarm.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorPayload{Error: err.Error()})

		return
	}

	created, err := h.store.Create(ctx, alarm)
	if err != nil {
		h.internalError(c, "Failed to create alarm", err)

		return
	}

	if created.Enabled {
		if err = h.scheduler.ScheduleNext(ctx, created); err != nil {
			h.internalError(c, "Failed to schedule created alarm", err)

			return
		}
	}

	c.JSON(http.StatusCreated, toAlarmPayload(created))
}

// handleGetAlarm handles GET /v1/alarms/:id.
func (h *Handlers) handleGetAlarm(c *gin.Context) {
	id, ok := alarmID(c)
	if !ok {
		return
	}

	alarm, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err)

		return
	}

	c.JSON(http.StatusOK, toAlarmPayload(alarm))
}

// handleDeleteAlarm handles DELETE /v1/alarms/:id. Any pending wake
// registration for the id is canceled with the record.
func (h *Handlers) handleDeleteAlarm(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := alarmID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		h.storeError(c, err)

		return
	}

	h.scheduler.Cancel(ctx, id)

	c.Status(http.StatusNoContent)
}

// handleEnableAlarm handles POST /v1/alarms/:id/enable.
func (h *Handlers) handleEnableAlarm(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := alarmID(c)
	if !ok {
		return
	}

	alarm, err := h.store.SetEnabled(ctx, id, true)
	if err != nil {
		h.storeError(c, err)

		return
	}

	if err = h.scheduler.ScheduleNext(ctx, alarm); err != nil {
		h.internalError(c, "Failed to schedule enabled alarm", err)

		return
	}

	c.JSON(http.StatusOK, toAlarmPayload(alarm))
}

// handleDisableAlarm handles POST /v1/alarms/:id/disable.
func (h *Handlers) handleDisableAlarm(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := alarmID(c)
	if !ok {
		return
	}

	alarm, err := h.store.SetEnabled(ctx, id, false)
	if err != nil {
		h.storeError(c, err)

		return
	}

	h.scheduler.Cancel(ctx, id)

	c.JSON(http.StatusOK, toAlarmPayload(alarm))
}

// registerToneRequest is the body of POST /v1/tones.
type registerToneRequest struct {
	Path string      `json:"path"`
	Kind domain.Tone `json:"kind"`
}

// handleListTones handles GET /v1/tones.
func (h *Handlers) handleListTones(c *gin.Context) {
	records, err := h.tones.ListTones(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to list tones", err)

		return
	}

	payload := make([]tonePayload, 0, len(records))
	for _, r := range records {
		payload = append(payload, tonePayload{ID: r.ID, Path: r.Path, Kind: r.Kind, CreatedAt: r.CreatedAt})
	}

	c.JSON(http.StatusOK, payload)
}

// handleRegisterTone handles POST /v1/tones.
func (h *Handlers) handleRegisterTone(c *gin.Context) {
	var req registerToneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorPayload{Error: err.Error()})

		return
	}

	if req.Kind != domain.ToneCustom && req.Kind != domain.ToneSelfRecorded {
		c.JSON(http.StatusUnprocessableEntity,
			errorPayload{Error: "kind must be custom or self_recorded"})

		return
	}

	record, err := h.tones.Register(c.Request.Context(), req.Path, req.Kind)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorPayload{Error: err.Error()})

		return
	}

	c.JSON(http.StatusCreated, tonePayload{
		ID:        record.ID,
		Path:      record.Path,
		Kind:      record.Kind,
		CreatedAt: record.CreatedAt,
	})
}

// handleListSessions handles GET /v1/sessions.
func (h *Handlers) handleListSessions(c *gin.Context) {
	active := h.sessions.Active()

	payload := make([]sessionPayload, 0, len(active))
	for _, s := range active {
		payload = append(payload, toSessionPayload(s))
	}

	c.JSON(http.StatusOK, payload)
}

// handleFace handles POST /v1/sessions/:id/face.
func (h *Handlers) handleFace(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.ConfirmFace(c.Request.Context()); err != nil {
		h.sessionError(c, err)

		return
	}

	c.JSON(http.StatusOK, toSessionPayload(s.Snapshot()))
}

// stepsRequest is the body of POST /v1/sessions/:id/steps.
type stepsRequest struct {
	Steps int `json:"steps"`
}

// handleSteps handles POST /v1/sessions/:id/steps.
func (h *Handlers) handleSteps(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req stepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorPayload{Error: err.Error()})

		return
	}

	if err := s.AddSteps(c.Request.Context(), req.Steps); err != nil {
		h.sessionError(c, err)

		return
	}

	c.JSON(http.StatusOK, toSessionPayload(s.Snapshot()))
}

// geoCheckResponse reports a single geofence evaluation.
type geoCheckResponse struct {
	GeoConfirmed bool           `json:"geo_confirmed"`
	Session      sessionPayload `json:"session"`
}

// handleGeo handles POST /v1/sessions/:id/geo.
func (h *Handlers) handleGeo(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req geoPointPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorPayload{Error: err.Error()})

		return
	}

	confirmed, err := s.CheckGeo(c.Request.Context(), domain.GeoPoint{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.sessionError(c, err)

		return
	}

	c.JSON(http.StatusOK, geoCheckResponse{
		GeoConfirmed: confirmed,
		Session:      toSessionPayload(s.Snapshot()),
	})
}

// handleDismiss handles POST /v1/sessions/:id/dismiss. A dismiss with unmet
// unlock conditions is rejected with 409.
func (h *Handlers) handleDismiss(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Dismiss(c.Request.Context()); err != nil {
		h.sessionError(c, err)

		return
	}

	c.JSON(http.StatusOK, toSessionPayload(s.Snapshot()))
}

// snoozeResponse reports the snooze outcome and the informational penalty
// notice flag. Nothing about it moves money.
type snoozeResponse struct {
	PenaltyNotice bool   `json:"penalty_notice"`
	WakeAt        string `json:"wake_at"`
}

// handleSnooze handles POST /v1/sessions/:id/snooze.
func (h *Handlers) handleSnooze(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := s.Snooze(c.Request.Context())
	if err != nil {
		h.sessionError(c, err)

		return
	}

	c.JSON(http.StatusOK, snoozeResponse{
		PenaltyNotice: result.PenaltyNotice,
		WakeAt:        result.WakeAt.Format(time.RFC3339),
	})
}

// settingsPayload is the read-only settings view.
type settingsPayload struct {
	Use24HourClock    bool `json:"use_24_hour_clock"`
	UPIAutoCutAllowed bool `json:"upi_auto_cut_allowed"`
	PenaltyWaived     bool `json:"penalty_waived"`
}

// handleGetSettings handles GET /v1/settings.
func (h *Handlers) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, settingsPayload{
		Use24HourClock:    h.settings.Use24HourClock,
		UPIAutoCutAllowed: h.settings.UPIAutoCutAllowed,
		PenaltyWaived:     h.settings.PenaltyWaived,
	})
}

// handleHealthz handles GET /healthz.
func (h *Handlers) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// alarmID parses the :id path parameter; an unparseable id is treated as an
// unknown alarm.
func alarmID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, errorPayload{Error: "alarm not found"})

		return 0, false
	}

	return id, true
}

// session resolves the :id path parameter to a live session.
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorPayload{Error: err.Error()})

		return nil, false
	}

	return s, true
}

// storeError maps repository errors to responses.
func (h *Handlers) storeError(c *gin.Context, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorPayload{Error: "alarm not found"})

		return
	}

	h.internalError(c, "Repository operation failed", err)
}

// sessionError maps session state-machine errors to responses. Rejected
// actions on a live session are conflicts, not server faults.
func (h *Handlers) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrGateNotSatisfied),
		errors.Is(err, session.ErrNotRinging),
		errors.Is(err, session.ErrNoGeoTarget):
		c.JSON(http.StatusConflict, errorPayload{Error: err.Error()})
	default:
		h.internalError(c, "Session operation failed", err)
	}
}

// internalError logs the failure and answers 500 without leaking details.
func (h *Handlers) internalError(c *gin.Context, message string, err error) {
	logger.ErrorKV(c.Request.Context(), message, "error", err)

	c.JSON(http.StatusInternalServerError, errorPayload{Error: "internal error"})
}

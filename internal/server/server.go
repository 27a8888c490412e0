// Package server exposes stored days, punches, plans, manual overtime and
// computed summaries over a JSON HTTP API.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tiliavir/work-time-tracker/internal/logging"
	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	backend  storage.Backend
	settings model.WorkSettings
	logLevel *slog.LevelVar
	loc      *time.Location
	now      func() time.Time

	// mu serializes the load-modify-save cycle of mutating handlers.
	mu sync.Mutex
}

// Option customises a Server.
type Option func(*Server)

// WithLocation sets the time zone dates and clock times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithClock replaces time.Now, used for punches without an explicit time.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server on top of backend.
func New(backend storage.Backend, settings model.WorkSettings, logLevel *slog.LevelVar, opts ...Option) *Server {
	s := &Server{
		backend:  backend,
		settings: settings,
		logLevel: logLevel,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "healthy"})
	})

	router.GET("/logLevel", s.getLogLevel)
	router.PUT("/logLevel/:level", s.putLogLevel)

	days := router.Group("/days/:date")
	days.GET("", s.getDay)
	days.GET("/summary", s.getSummary)
	days.POST("/punches", s.locked(s.postPunch))
	days.PUT("/plan", s.locked(s.putPlan))
	days.POST("/overtime", s.locked(s.postOvertime))
	days.DELETE("/overtime/:id", s.locked(s.deleteOvertime))

	return router
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		MaxHeaderBytes:    1024 * 10,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}

// locked runs h while holding the write lock, so concurrent requests cannot
// interleave their reads and writes of a day record.
func (s *Server) locked(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(c)
	}
}

func (s *Server) getLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"current logLevel": s.logLevel.Level().String()})
}

func (s *Server) putLogLevel(c *gin.Context) {
	if err := logging.SetLevel(c.Param("level"), s.logLevel); err != nil {
		slog.Error("can not set log level", "error", err)
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current logLevel": s.logLevel.Level().String()})
}

// day parses the :date parameter, writing a 400 response when it is invalid.
func (s *Server) day(c *gin.Context) (time.Time, bool) {
	d, err := timecalc.ParseDate(c.Param("date"), s.loc)
	if err != nil {
		badRequest(c, err)
		return time.Time{}, false
	}
	return d, true
}

func (s *Server) getDay(c *gin.Context) {
	day, ok := s.day(c)
	if !ok {
		return
	}
	df, err := s.backend.LoadDay(day)
	if err != nil {
		storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, df)
}

type summaryResponse struct {
	Date        string          `json:"date"`
	Info        model.DayInfo   `json:"info"`
	MealVoucher bool            `json:"mealVoucher"`
	Result      worktime.Result `json:"result"`
}

func (s *Server) getSummary(c *gin.Context) {
	day, ok := s.day(c)
	if !ok {
		return
	}
	rep, err := storage.SummarizeDay(s.backend, day, s.settings)
	if err != nil {
		storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		Date:        rep.Day.Format(timecalc.DateLayout),
		Info:        rep.File.Info,
		MealVoucher: worktime.MealVoucherEligible(rep.Result.Summary, s.settings.MealVoucherThresholdHours),
		Result:      rep.Result,
	})
}

type punchRequest struct {
	Kind model.EntryKind `json:"kind" binding:"required"`
	// At is a wall-clock "HH:MM" on the path's date. Empty means now.
	At string `json:"at"`
}

func (s *Server) postPunch(c *gin.Context) {
	day, ok := s.day(c)
	if !ok {
		return
	}
	var req punchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Kind != model.KindIn && req.Kind != model.KindOut {
		badRequest(c, errors.New(`kind must be "in" or "out"`))
		return
	}

	at := s.now().In(s.loc)
	if req.At != "" {
		var after time.Time
		if req.Kind == model.KindOut {
			open, _, err := storage.FindOpenEntry(s.backend, timecalc.EndOfDay(day))
			if err != nil {
				storageError(c, err)
				return
			}
			if open != nil {
				after = open.Timestamp
			}
		}
		var err error
		if at, err = timecalc.ResolveClock(day, req.At, after); err != nil {
			badRequest(c, err)
			return
		}
	}

	entry, stored, err := storage.Punch(s.backend, req.Kind, at)
	switch {
	case errors.Is(err, storage.ErrAlreadyClockedIn),
		errors.Is(err, storage.ErrNotClockedIn),
		errors.Is(err, storage.ErrOutBeforeIn):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		storageError(c, err)
		return
	}
	slog.Info("punch recorded", "kind", entry.Kind, "at", entry.Timestamp, "day", stored.Format(timecalc.DateLayout))
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "date": stored.Format(timecalc.DateLayout)})
}

func (s *Server) putPlan(c *gin.Context) {
	day, ok := s.day(c)
	if !ok {
		return
	}
	var info model.DayInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}
	if id, isShift := info.ShiftID(); isShift {
		if _, found := s.settings.FindShift(id); !found {
			badRequest(c, errors.New("unknown shift "+id))
			return
		}
	}
	if err := storage.SetDayInfo(s.backend, day, info); err != nil {
		storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) postOvertime(c *gin.Context) {
	day, ok := s.day(c)
	if !ok {
		return
	}
	var req model.ManualOvertimeEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.Type.Valid() || !req.ValidDuration() {
		badRequest(c, errors.New("overtime needs a duration_ms between 1 and "+strconv.FormatInt(model.MaxDurationMs, 10)+" and a type of diurnal, nocturnal, holiday or nocturnal_holiday"))
		return
	}
	req.ID = ""
	entry, err := storage.AddManualOvertime(s.backend, day, req)
	if err != nil {
		storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) deleteOvertime(c *gin.Context) {
	day, ok := s.day(c)
	if !ok {
		return
	}
	removed, err := storage.RemoveManualOvertime(s.backend, day, c.Param("id"))
	if err != nil {
		storageError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "no overtime entry " + c.Param("id")})
		return
	}
	c.Status(http.StatusNoContent)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func storageError(c *gin.Context, err error) {
	slog.Error("storage failure", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

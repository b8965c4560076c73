package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raidwatch/raidwatch/internal/poller"
	"github.com/raidwatch/raidwatch/internal/webui"
	"github.com/rs/zerolog"
)

// StatusProvider exposes the last published poll status
type StatusProvider interface {
	Status() poller.Status
}

// Server provides the read-only HTTP status surface
type Server struct {
	status    StatusProvider
	regions   map[int]string
	logBuffer *webui.LogBuffer
	gatherer  prometheus.Gatherer
	logger    zerolog.Logger
	addr      string
	startTime time.Time
	version   string
	commit    string
	buildDate string
}

// PageData is rendered by the index template
type PageData struct {
	Version string
	Uptime  string
	Status  poller.Status
	Regions []webui.RegionRow
	Logs    []webui.LogEntry
}

// NewServer creates a new API server
func NewServer(status StatusProvider, regions map[int]string, gatherer prometheus.Gatherer, logger zerolog.Logger, addr string) *Server {
	return &Server{
		status:    status,
		regions:   regions,
		gatherer:  gatherer,
		logger:    logger.With().Str("component", "api").Logger(),
		addr:      addr,
		startTime: time.Now(),
	}
}

// SetLogBuffer sets the log buffer served by /api/logs and the index page
func (s *Server) SetLogBuffer(lb *webui.LogBuffer) {
	s.logBuffer = lb
}

// SetVersion sets the version information
func (s *Server) SetVersion(version, commit, buildDate string) {
	s.version = version
	s.commit = commit
	s.buildDate = buildDate
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/api/regions", s.handleRegions)
	mux.HandleFunc("/api/logs", s.handleLogsAPI)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleWebUI)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("address", s.addr).
			Msg("Starting status server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	return nil
}

// handleHealth returns service health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus returns the last cycle summary
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()
	active := 0
	for _, on := range st.Regions {
		if on {
			active++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_regions": active,
		"cycles":         st.Cycles,
		"last_cycle":     st.LastCycle,
		"last_result":    st.LastResult,
		"last_error":     st.LastError,
		"last_success":   st.LastSuccess,
		"uptime":         time.Since(s.startTime).Round(time.Second).String(),
		"version":        s.version,
		"commit":         s.commit,
		"build_date":     s.buildDate,
	})
}

// handleRegions lists every configured region with its current status
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	rows := s.regionRows()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions": rows,
		"count":   len(rows),
	})
}

// handleLogsAPI returns recent log entries as JSON
func (s *Server) handleLogsAPI(w http.ResponseWriter, r *http.Request) {
	var entries []webui.LogEntry
	if s.logBuffer != nil {
		entries = s.logBuffer.GetRecentEntries(200)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleWebUI renders the status page
func (s *Server) handleWebUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := PageData{
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		Status:  s.status.Status(),
		Regions: s.regionRows(),
	}
	if s.logBuffer != nil {
		data.Logs = s.logBuffer.GetRecentEntries(50)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Templates.ExecuteTemplate(w, "index", data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render status page")
	}
}

func (s *Server) regionRows() []webui.RegionRow {
	st := s.status.Status()
	rows := make([]webui.RegionRow, 0, len(s.regions))
	for id, name := range s.regions {
		rows = append(rows, webui.RegionRow{ID: id, Name: name, Active: st.Regions[id]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

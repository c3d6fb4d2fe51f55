package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"journey-tracker/internal/journey"
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type journeyView struct {
	Key   string        `json:"key"`
	Name  string        `json:"name"`
	State journey.State `json:"state"`
}

type windowView struct {
	Key    string               `json:"key"`
	Name   string               `json:"name"`
	Result journey.WindowResult `json:"result"`
}

// Server exposes the tracked state read-only, plus the write-capable pause
// toggle keyed by route identity.
type Server struct {
	echo     *echo.Echo
	trackers map[string]*journey.Tracker
	scanners map[string]*journey.WindowScanner
	pauses   *journey.PauseStore
}

func NewServer(trackers []*journey.Tracker, scanners []*journey.WindowScanner, pauses *journey.PauseStore) *Server {
	s := &Server{
		echo:     echo.New(),
		trackers: make(map[string]*journey.Tracker, len(trackers)),
		scanners: make(map[string]*journey.WindowScanner, len(scanners)),
		pauses:   pauses,
	}
	for _, t := range trackers {
		s.trackers[t.Key()] = t
	}
	for _, sc := range scanners {
		s.scanners[sc.Key()] = sc
	}

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
	}))

	s.echo.GET("/journeys", s.listJourneys)
	s.echo.GET("/journeys/:key", s.getJourney)
	s.echo.PUT("/journeys/:key/pause", s.setPause)
	s.echo.POST("/journeys/:key/pause/toggle", s.togglePause)
	s.echo.GET("/windows", s.listWindows)
	s.echo.GET("/windows/:key", s.getWindow)

	return s
}

// Handler exposes the route tree for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Serve starts an HTTP server for the API on the given address.
func (s *Server) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: s.echo}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("api server error: %v", err)
		}
	}()
	log.Printf("api listening on %s", addr)
	return srv
}

func (s *Server) listJourneys(c echo.Context) error {
	views := make([]journeyView, 0, len(s.trackers))
	for _, t := range s.trackers {
		views = append(views, journeyView{Key: t.Key(), Name: t.Name(), State: t.State()})
	}
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: views})
}

func (s *Server) getJourney(c echo.Context) error {
	t, ok := s.trackers[c.PathParam("key")]
	if !ok {
		return c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "no such journey"})
	}
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: journeyView{Key: t.Key(), Name: t.Name(), State: t.State()}})
}

func (s *Server) setPause(c echo.Context) error {
	key := c.PathParam("key")
	if _, ok := s.trackers[key]; !ok {
		return c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "no such journey"})
	}
	var body struct {
		Paused *bool `json:"paused"`
	}
	if err := c.Bind(&body); err != nil || body.Paused == nil {
		return c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: "body must be {\"paused\": bool}"})
	}
	s.pauses.SetPaused(key, *body.Paused)
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: map[string]bool{"paused": *body.Paused}})
}

func (s *Server) togglePause(c echo.Context) error {
	key := c.PathParam("key")
	if _, ok := s.trackers[key]; !ok {
		return c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "no such journey"})
	}
	paused := s.pauses.Toggle(key)
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: map[string]bool{"paused": paused}})
}

func (s *Server) listWindows(c echo.Context) error {
	views := make([]windowView, 0, len(s.scanners))
	for _, sc := range s.scanners {
		views = append(views, windowView{Key: sc.Key(), Name: sc.Name(), Result: sc.Result()})
	}
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: views})
}

func (s *Server) getWindow(c echo.Context) error {
	sc, ok := s.scanners[c.PathParam("key")]
	if !ok {
		return c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "no such window"})
	}
	return c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: windowView{Key: sc.Key(), Name: sc.Name(), Result: sc.Result()}})
}

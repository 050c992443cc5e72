// Package server exposes a bootstrapped page over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/blake2b"

	"github.com/novvoo/go-pdfembed/pkg/dom"
	"github.com/novvoo/go-pdfembed/pkg/embed"
	"github.com/novvoo/go-pdfembed/pkg/snapshot"
)

// Options configure a Server.
type Options struct {
	// Format of frame images (default png).
	Format string

	Logger *slog.Logger
}

// Server serves the page, the state of each embed, composed frames, and
// navigation.
type Server struct {
	e        *echo.Echo
	page     *dom.Document
	set      *embed.Set
	composer *snapshot.Composer
	format   string
	log      *slog.Logger
}

// EmbedState is the JSON view of an embed.
type EmbedState struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Page      int    `json:"page,omitempty"`
	Total     int    `json:"total,omitempty"`
	Rendering int    `json:"rendering,omitempty"`
	Pending   int    `json:"pending,omitempty"`
	Error     string `json:"error,omitempty"`

	// RenderError is the failure of the last navigation.
	RenderError string `json:"render_error,omitempty"`
}

// New returns a server for page and its bootstrapped embeds.
func New(page *dom.Document, set *embed.Set, composer *snapshot.Composer, opts Options) (*Server, error) {
	format, err := snapshot.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		e:        echo.New(),
		page:     page,
		set:      set,
		composer: composer,
		format:   format,
		log:      opts.Logger,
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.e.Use(s.logRequests)
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.e.GET("/", s.handlePage)
	s.e.GET("/embeds", s.handleList)
	s.e.GET("/embeds/:id", s.handleState)
	s.e.GET("/embeds/:id/frame", s.handleFrame)
	s.e.POST("/embeds/:id/prev", s.handleClick(func(r *embed.Region) *dom.Element { return r.Prev }))
	s.e.POST("/embeds/:id/next", s.handleClick(func(r *embed.Region) *dom.Element { return r.Next }))
	s.e.POST("/embeds/:id/page/:num", s.handleGoTo)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.e.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Info("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration", time.Since(start))
		return nil
	}
}

func (s *Server) handlePage(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.page.Render(&buf); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleList(c echo.Context) error {
	out := make([]EmbedState, 0, len(s.set.All()))
	for _, e := range s.set.All() {
		out = append(out, stateOf(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleState(c echo.Context) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateOf(e))
}

func (s *Server) handleFrame(c echo.Context) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	if e.Region == nil {
		return echo.NewHTTPError(http.StatusConflict, "embed has no targets")
	}

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, s.composer.Compose(e.Region.Frame()), s.format); err != nil {
		return err
	}
	sum := blake2b.Sum256(buf.Bytes())
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	c.Response().Header().Set("ETag", etag)
	c.Response().Header().Set("Cache-Control", "no-cache")
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, snapshot.ContentType(s.format), buf.Bytes())
}

// handleClick dispatches a click on one of the embed's controls, so
// navigation goes through the same listeners as any other input. A failed
// render answers 502 with the embed state.
func (s *Server) handleClick(control func(*embed.Region) *dom.Element) echo.HandlerFunc {
	return func(c echo.Context) error {
		e, err := s.navigable(c)
		if err != nil {
			return err
		}
		control(e.Region).Click(c.Request().Context())
		st := stateOf(e)
		if st.RenderError != "" {
			return c.JSON(http.StatusBadGateway, st)
		}
		return c.JSON(http.StatusOK, st)
	}
}

func (s *Server) handleGoTo(c echo.Context) error {
	e, err := s.navigable(c)
	if err != nil {
		return err
	}
	num, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page must be a number")
	}
	if err := e.Controller.GoTo(c.Request().Context(), num); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, stateOf(e))
}

func (s *Server) lookup(c echo.Context) (*embed.Embed, error) {
	e, ok := s.set.Get(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no such embed")
	}
	return e, nil
}

func (s *Server) navigable(c echo.Context) (*embed.Embed, error) {
	e, err := s.lookup(c)
	if err != nil {
		return nil, err
	}
	if e.Controller == nil {
		return nil, echo.NewHTTPError(http.StatusConflict, "embed has no document")
	}
	return e, nil
}

func stateOf(e *embed.Embed) EmbedState {
	st := EmbedState{ID: e.ID(), Source: e.Marker.Source}
	if e.Err != nil {
		st.Error = e.Err.Error()
	}
	if e.Controller != nil {
		v := e.Controller.State()
		st.Page, st.Total, st.Rendering, st.Pending = v.Page, v.Total, v.Rendering, v.Pending
		if err := e.Controller.LastError(); err != nil {
			st.RenderError = err.Error()
		}
	}
	return st
}

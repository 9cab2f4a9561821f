// Package authgate implements the TCP identity check taxis perform
// before joining the fleet. The persisted taxi file is reloaded for
// every connection so out-of-band edits take effect immediately. This
// is a plaintext identity check, not a security boundary.
package authgate

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/easycab-sim/central/core/model"
	"github.com/easycab-sim/central/infra/logger"
)

// Replies sent to the connecting taxi.
const (
	replyOK = "OK"
	replyKO = "KO"
)

// Config holds the listener settings.
type Config struct {
	Port           int `json:"port"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies the per-connection read/write timeout.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
}

// Validate checks the mandatory listen port.
func (c Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("auth listen port is required")
	}
	return nil
}

// Loader supplies the persisted fleet, freshly read from disk.
type Loader interface {
	LoadTaxis() (map[int]model.Taxi, error)
}

// Server accepts taxi authentication connections.
type Server struct {
	cfg    Config
	loader Loader
	log    logger.Logger
}

// New creates a Server.
func New(cfg Config, loader Loader, log logger.Logger) *Server {
	cfg.SetDefaults()
	return &Server{cfg: cfg, loader: loader, log: log}
}

// Run listens on the configured port until the context is cancelled,
// then drains in-flight handlers before returning.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("auth listener: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on the provided listener, one goroutine per
// connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Infof("listening for taxi connections on %s", ln.Addr())
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			s.log.Errorf("accept: %v", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(conn)
		}()
	}
}

// handle reads a bare decimal taxi id, checks it against the persisted
// fleet and replies OK or KO. The connection closes either way.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	deadline := time.Now().Add(time.Duration(s.cfg.TimeoutSeconds) * time.Second)
	if err := conn.SetDeadline(deadline); err != nil {
		s.log.Errorf("set deadline: %v", err)
		return
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		s.log.Errorf("read from %s: %v", conn.RemoteAddr(), err)
		return
	}
	id, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		s.log.Warnf("malformed taxi id from %s: %q", conn.RemoteAddr(), string(buf[:n]))
		s.reply(conn, replyKO)
		return
	}

	taxis, err := s.loader.LoadTaxis()
	if err != nil {
		s.log.Errorf("reload fleet: %v", err)
		s.reply(conn, replyKO)
		return
	}
	if _, ok := taxis[id]; ok {
		s.log.Infof("taxi %d authenticated", id)
		s.reply(conn, replyOK)
	} else {
		s.log.Warnf("taxi %d rejected: not in fleet", id)
		s.reply(conn, replyKO)
	}
}

func (s *Server) reply(conn net.Conn, msg string) {
	if _, err := conn.Write([]byte(msg)); err != nil {
		s.log.Errorf("write to %s: %v", conn.RemoteAddr(), err)
	}
}

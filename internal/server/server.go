/**
 * Copyright 2026 aou-systems
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package server runs the TCP and Unix-domain FIXML listeners. Each
// accepted connection gets its own goroutine and parser context; all
// of them feed requests to a single dispatch goroutine over a
// buffered channel, which is the Go-idiomatic stand-in for the
// original single-threaded event loop serializing database access.
package server

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/aou-systems/umpfd/internal/dispatch"
	"github.com/aou-systems/umpfd/internal/fixml"
	"github.com/aou-systems/umpfd/internal/message"
	ulog "github.com/aou-systems/umpfd/pkg/log"
)

// Config names the two optional listener addresses. Either may be
// empty to disable that listener.
type Config struct {
	TCPAddr    string // e.g. ":8675"
	UnixSocket string // e.g. "/var/run/umpfd.sock"
}

// job is one parsed request paired with the channel its reply is
// delivered back on, queued to the single dispatch goroutine.
type job struct {
	msg   *message.Message
	reply chan *message.Message
}

// Server owns the listeners and the dispatch goroutine's input queue.
type Server struct {
	cfg  Config
	disp *dispatch.Dispatcher
	jobs chan job

	wg     sync.WaitGroup
	mu     sync.Mutex
	lns    []net.Listener
	closed bool
}

// New returns a Server that dispatches against d. The job queue depth
// of 64 bounds how many parsed-but-undispatched requests may pile up
// behind a slow SQL round-trip before a connection's reader stalls.
func New(cfg Config, d *dispatch.Dispatcher) *Server {
	return &Server{cfg: cfg, disp: d, jobs: make(chan job, 64)}
}

// Run binds the configured listeners, starts the dispatch goroutine
// and one accept loop per listener, and blocks until stop is closed.
func (s *Server) Run(stop <-chan struct{}) error {
	if s.cfg.TCPAddr == "" && s.cfg.UnixSocket == "" {
		return fmt.Errorf("server: no listener configured")
	}

	if s.cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.TCPAddr)
		if err != nil {
			return fmt.Errorf("server: listen tcp %s: %w", s.cfg.TCPAddr, err)
		}
		s.lns = append(s.lns, ln)
		ulog.Infof("server: listening on tcp %s", s.cfg.TCPAddr)
	}

	if s.cfg.UnixSocket != "" {
		os.Remove(s.cfg.UnixSocket)
		ln, err := net.Listen("unix", s.cfg.UnixSocket)
		if err != nil {
			return fmt.Errorf("server: listen unix %s: %w", s.cfg.UnixSocket, err)
		}
		if err := os.Chmod(s.cfg.UnixSocket, 0o777); err != nil {
			ln.Close()
			return fmt.Errorf("server: chmod %s: %w", s.cfg.UnixSocket, err)
		}
		s.lns = append(s.lns, ln)
		ulog.Infof("server: listening on unix %s", s.cfg.UnixSocket)
	}

	s.wg.Add(1)
	go s.dispatchLoop()

	for _, ln := range s.lns {
		s.wg.Add(1)
		go s.acceptLoop(ln)
	}

	<-stop
	s.shutdown()
	s.wg.Wait()
	return nil
}

func (s *Server) shutdown() {
	s.mu.Lock()
	s.closed = true
	for _, ln := range s.lns {
		ln.Close()
	}
	s.mu.Unlock()
	close(s.jobs)
}

// dispatchLoop is the sole caller into the dispatcher, and therefore
// the sole writer to the store, matching spec.md §5's "the loop
// serializes all database access".
func (s *Server) dispatchLoop() {
	defer s.wg.Done()
	for j := range s.jobs {
		if err := s.disp.Dispatch(j.msg); err != nil {
			ulog.Errorf("server: dispatch: %v", err)
		}
		j.reply <- j.msg
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			ulog.Warnf("server: accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn owns one connection's parser context exclusively: reads
// up to 4KiB at a time, feeds the parser, and on a completed message
// hands it to the dispatch goroutine and waits for the reply before
// reading again, which keeps per-connection ordering strict (there is
// never more than one request from this connection in flight).
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	parser := fixml.NewParser()
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil || n <= 0 {
			return
		}

		msg, status, err := parser.Feed(buf[:n])
		switch status {
		case fixml.StatusFatal:
			ulog.Warnf("server: parse error from %s: %v", conn.RemoteAddr(), err)
			return
		case fixml.StatusNeedMore:
			continue
		}

		reply, err := s.dispatchAndWait(msg)
		if err != nil {
			ulog.Errorf("server: dispatch error from %s: %v", conn.RemoteAddr(), err)
			return
		}

		if err := writeAll(conn, fixml.Serialize(reply)); err != nil {
			return
		}
	}
}

func (s *Server) dispatchAndWait(msg *message.Message) (*message.Message, error) {
	reply := make(chan *message.Message, 1)
	defer close(reply)

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("server: shutting down")
	}

	s.jobs <- job{msg: msg, reply: reply}
	return <-reply, nil
}

func writeAll(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("server: write returned %d", n)
		}
		data = data[n:]
	}
	return nil
}

/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package cmacutil

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// StatusServer broadcasts driver iteration events to any number of connected
// websocket clients: the optional "--watch" companion spec.md §1 leaves to
// a driver, not the core, to provide.
type StatusServer struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	log logrus.FieldLogger
}

// NewStatusServer builds a StatusServer. log receives connection-lifecycle
// errors; nil defaults to the standard logger.
func NewStatusServer(log logrus.FieldLogger) *StatusServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StatusServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		log:     log,
	}
}

// ServeHTTP upgrades the connection and registers it as a broadcast target
// until it closes.
func (s *StatusServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("status server: upgrade failed")
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard anything the client sends; this is a one-way feed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// IterationStatus is the JSON payload broadcast after each driver iteration.
type IterationStatus struct {
	Iteration   int     `json:"iteration"`
	Convergence float64 `json:"convergence"`
	Walltime    float64 `json:"walltime"`
}

// Broadcast sends status to every currently connected client, dropping any
// that error (they are unregistered on their own read-loop's next failure).
func (s *StatusServer) Broadcast(status IterationStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		s.log.WithError(err).Warn("status server: marshal failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.log.WithError(err).Debug("status server: write failed")
		}
	}
}

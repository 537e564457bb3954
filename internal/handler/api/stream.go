package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ExoVista/internal/domain/models"
	svcmetrics "ExoVista/internal/service/metrics"
	"ExoVista/internal/usecase"
	xhttp "ExoVista/pkg/http"
	xlogger "ExoVista/pkg/logger"
)

// StreamError is the frame sent back for an observation that could not be classified.
type StreamError struct {
	Error  string                 `json:"error"`
	Fields xhttp.ValidationErrors `json:"fields,omitempty"`
}

// Stream upgrades to a websocket. Every text frame is one observation, every
// reply is a report or a StreamError.
func (h *DispositionHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the handshake error
		h.logger.Warn("stream upgrade failed", xlogger.Error(err))
		return nil
	}
	svcmetrics.StreamSessions.Inc()
	defer svcmetrics.StreamSessions.Dec()

	s := &streamSession{h: h, conn: conn}
	s.run(c.Request().Context())
	return nil
}

type streamSession struct {
	h    *DispositionHandler
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (s *streamSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	defer cancel()
	defer s.conn.Close()

	pongWait := 2 * s.h.pingInterval
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// ping loop
	go func() {
		ticker := time.NewTicker(s.h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.wmu.Lock()
				err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				s.wmu.Unlock()
				if err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		mt, b, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.h.logger.Debug("stream closed", xlogger.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := s.write(s.handle(ctx, b)); err != nil {
			s.h.logger.Debug("stream write failed", xlogger.Error(err))
			return
		}
	}
}

func (s *streamSession) handle(ctx context.Context, b []byte) any {
	start := time.Now()
	defer observe("stream", start)

	req := &models.AnalyzeRequest{}
	if err := json.Unmarshal(b, req); err != nil {
		svcmetrics.EndpointErrors.WithLabelValues("stream", "malformed").Inc()
		return StreamError{Error: "malformed observation: " + err.Error()}
	}
	if err := xhttp.ValidateStruct(ctx, req); err != nil {
		svcmetrics.EndpointErrors.WithLabelValues("stream", "validation").Inc()
		var verrs xhttp.ValidationErrors
		errors.As(err, &verrs)
		return StreamError{Error: err.Error(), Fields: verrs}
	}
	report, err := s.h.uc.Analyze(ctx, req.Observation(), models.InputMode(req.Mode), req.Seed, usecase.SourceStream)
	if err != nil {
		svcmetrics.EndpointErrors.WithLabelValues("stream", "client").Inc()
		return StreamError{Error: err.Error()}
	}
	return report
}

func (s *streamSession) write(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

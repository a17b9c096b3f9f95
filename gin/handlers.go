package gin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/codecanvas"
	cjson "github.com/fwojciec/codecanvas/json"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// observe reports the final status and latency of route to Metrics.
func (s *Server) observe(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.metrics.ObserveRequest(route, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, cjson.HealthResponse{Status: "ok"})
}

// handleVisual answers with exactly one JSON object: the analogy on
// success, an error otherwise.
func (s *Server) handleVisual(c *gin.Context) {
	req, err := cjson.DecodeRequest(c.Request.Body, codecanvas.IntentVisualAnalogy)
	if err != nil {
		respondError(c, err, visualFailure)
		return
	}

	resp, err := s.gateway.Visualize(c.Request.Context(), req)
	if s.clientGone(c, RouteVisual, err) {
		return
	}
	if err != nil {
		s.metrics.UpstreamFailure(RouteVisual, PhaseBeforeHeaders)
		respondError(c, err, visualFailure)
		return
	}
	c.JSON(http.StatusOK, cjson.AnalogyResponse{Analogy: resp.Text})
}

// handleExplain streams the explanation as raw UTF-8 fragments. Failures
// before the first fragment are reported as 500 JSON; failures after that
// are reported in-band by the relay and the response ends normally.
func (s *Server) handleExplain(c *gin.Context) {
	req, err := cjson.DecodeRequest(c.Request.Body, codecanvas.IntentExplain)
	if err != nil {
		respondError(c, err, explainFailure)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := s.gateway.Explain(ctx, req)
	if s.clientGone(c, RouteExplain, err) {
		return
	}
	if err != nil {
		s.metrics.UpstreamFailure(RouteExplain, PhaseBeforeHeaders)
		respondError(c, err, explainFailure)
		return
	}

	relay := codecanvas.NewRelay(stream, codecanvas.WithErrorText(s.errorText))
	err = relay.Prime()
	if s.clientGone(c, RouteExplain, err) {
		return
	}
	if err != nil {
		s.metrics.UpstreamFailure(RouteExplain, PhaseBeforeHeaders)
		respondError(c, err, explainFailure)
		return
	}

	body, err := relay.Open()
	if err != nil {
		relay.Close()
		respondError(c, err, explainFailure)
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	buf := make([]byte, 32*1024)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				break
			}
			c.Writer.Flush()
		}
		if rerr != nil {
			break
		}
	}
	_ = body.Close()
	cancel()
	<-relay.Done()

	s.logRelay(c, relay)
}

// clientGone reports whether err is the request being cancelled by the
// caller before anything was committed. Such requests end with
// StatusClientClosedRequest and count as a disconnect, not a failure.
func (s *Server) clientGone(c *gin.Context, route string, err error) bool {
	if !errors.Is(err, context.Canceled) || c.Request.Context().Err() == nil {
		return false
	}
	s.metrics.ClientDisconnect(route)
	s.logger.Debug("client disconnected",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("route", route),
		zap.String("phase", PhaseBeforeHeaders),
	)
	c.AbortWithStatus(StatusClientClosedRequest)
	return true
}

func (s *Server) logRelay(c *gin.Context, relay *codecanvas.Relay) {
	fragments, bytes := relay.Stats()
	s.metrics.ObserveStream(fragments, bytes)
	fields := []zap.Field{
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("relay_state", relay.State().String()),
		zap.Int("fragments", fragments),
		zap.Int("bytes", bytes),
	}

	switch {
	case relay.Err() != nil:
		s.metrics.UpstreamFailure(RouteExplain, PhaseMidStream)
		s.logger.Warn("explanation failed mid-stream", append(fields, zap.Error(relay.Err()))...)
	case relay.TransportErr() != nil || c.Request.Context().Err() != nil:
		s.metrics.ClientDisconnect(RouteExplain)
		if terr := relay.TransportErr(); terr != nil {
			fields = append(fields, zap.NamedError("transport_error", terr))
		}
		s.logger.Debug("client disconnected", fields...)
	default:
		s.logger.Debug("explanation streamed", fields...)
	}
}

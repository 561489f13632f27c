package httpclients

import (
	"context"
	"time"

	"resty.dev/v3"

	"nevis-server/internal/infrastructure/logger"
)

type RequestID struct{}
type requestStartsAt struct{}

// NewClient builds a resty client that logs every outbound call with latency
// and status under the given client name.
func NewClient(clientName string) *resty.Client {
	client := resty.New()
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), requestStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		startTime, _ := r.Request.Context().Value(requestStartsAt{}).(time.Time)
		requestID, _ := r.Request.Context().Value(RequestID{}).(string)

		log.Debug().
			Str("request_id", requestID).
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Str("method", r.Request.RawRequest.Method).
			Str("path", r.Request.RawRequest.URL.Path).
			Dur("latency", time.Since(startTime)).
			Msg("HTTP client request")
		return nil
	})
	return client
}

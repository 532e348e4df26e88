package log

import (
	"log/slog"
	"net/http"

	"github.com/motemen/go-loghttp"
)

// HTTPTransport wraps rt so each request and response is logged at debug
// level. Header values pass through the SecureHandler, so credentials are masked.
func HTTPTransport(logger *slog.Logger, rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &loghttp.Transport{
		Transport: rt,
		LogRequest: func(req *http.Request) {
			logger.Debug("HTTP request",
				"method", req.Method,
				"url", req.URL.String(),
				headerGroup(req.Header),
			)
		},
		LogResponse: func(resp *http.Response) {
			logger.Debug("HTTP response",
				"method", resp.Request.Method,
				"url", resp.Request.URL.String(),
				"status_code", resp.StatusCode,
				headerGroup(resp.Header),
			)
		},
	}
}

// TransportWrapper returns HTTPTransport bound to logger, in the shape
// expected by probe.WithTransportWrapper.
func TransportWrapper(logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(rt http.RoundTripper) http.RoundTripper {
		return HTTPTransport(logger, rt)
	}
}

func headerGroup(h http.Header) slog.Attr {
	attrs := make([]any, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			attrs = append(attrs, slog.String(name, v))
		}
	}
	return slog.Group("headers", attrs...)
}

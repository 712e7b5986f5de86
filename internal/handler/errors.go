package handler

import (
	"context"
	"errors"
	"net"
	"net/url"

	"jobboard-edge/internal/service"
)

// classify returns a short failure class used in logs. Clients never see it.
func classify(err error) string {
	var (
		dnsErr    *net.DNSError
		statusErr *service.UpstreamStatusError
		urlErr    *url.Error
	)

	switch {
	case errors.Is(err, service.ErrNotConfigured):
		return "config"
	case errors.Is(err, service.ErrInvalidJSON):
		return "decode"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &statusErr):
		return "upstream_status"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &urlErr):
		if urlErr.Timeout() {
			return "timeout"
		}
		return "connect"
	}
	return "upstream"
}

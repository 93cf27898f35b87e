package service

import (
	"net"
	"strings"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/logger"
)

// ProbeService answers "is this endpoint reachable right now". It never
// returns an error: resolution failures, timeouts and refused connections
// all mean unreachable. Retrying is the caller's business.
type ProbeService struct {
}

func NewProbeService() *ProbeService {
	return &ProbeService{}
}

// CheckReachable dials the endpoint (host:port, port 443 assumed when
// missing) within the given timeout.
func (s *ProbeService) CheckReachable(endpoint string, timeout time.Duration) bool {
	if endpoint == "" {
		return false
	}
	host, port := splitEndpoint(endpoint)
	if _, err := net.ResolveIPAddr("ip", host); err != nil {
		logger.Debugf("probe: resolve %s failed: %v", host, err)
		return false
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		logger.Debugf("probe: dial %s failed: %v", endpoint, err)
		return false
	}
	_ = conn.Close()
	return true
}

func splitEndpoint(endpoint string) (string, string) {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	if i := strings.Index(endpoint, "/"); i >= 0 {
		endpoint = endpoint[:i]
	}
	if host, port, err := net.SplitHostPort(endpoint); err == nil {
		return host, port
	}
	return endpoint, "443"
}

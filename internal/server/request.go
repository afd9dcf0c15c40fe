package server

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// clientKey identifies the requesting client for preference storage:
// forwarded address when a proxy sits in front, else the socket address,
// qualified by the user agent.
func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if i := strings.IndexByte(host, ','); i >= 0 {
		host = strings.TrimSpace(host[:i])
	}
	if host == "" {
		var err error
		host, _, err = net.SplitHostPort(r.RemoteAddr)
		if err != nil || host == "" {
			host = r.RemoteAddr
		}
	}
	return host + "|" + r.UserAgent()
}

func prefKey(client, host string) string {
	return client + "|" + host
}

// hostOf extracts the lowercased hostname from a user-supplied target,
// tolerating missing schemes. Unparseable targets yield "".
func hostOf(target string) string {
	t := strings.TrimSpace(target)
	if t == "" {
		return ""
	}
	if !strings.Contains(t, "://") {
		t = "https://" + t
	}
	u, err := url.Parse(t)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

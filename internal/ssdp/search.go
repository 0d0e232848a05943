package ssdp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sparse/dp/internal/device"
)

// MaxSearchDelay caps the random delay before answering an M-SEARCH,
// whatever MX the requester asked for.
const MaxSearchDelay = 5 * time.Second

var (
	// ErrNotSearch is returned by ParseSearch for datagrams that are not
	// M-SEARCH requests, such as other devices' NOTIFY messages.
	ErrNotSearch = errors.New("not an M-SEARCH request")
	// ErrMalformedSearch is returned for M-SEARCH requests with missing or
	// invalid headers.
	ErrMalformedSearch = errors.New("malformed M-SEARCH request")
)

// SearchRequest is a parsed M-SEARCH.
type SearchRequest struct {
	ST   string
	MX   int
	From net.Addr
}

// ParseSearch parses an SSDP datagram received from from.
func ParseSearch(data []byte, from net.Addr) (*SearchRequest, error) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		if bytes.HasPrefix(data, []byte("HTTP/")) {
			return nil, ErrNotSearch
		}
		return nil, fmt.Errorf("parse SSDP request: %w", err)
	}

	if req.Method != "M-SEARCH" {
		return nil, ErrNotSearch
	}
	if req.Header.Get("MAN") != discoverMan {
		return nil, fmt.Errorf("%w: MAN is %q", ErrMalformedSearch, req.Header.Get("MAN"))
	}

	sr := &SearchRequest{
		ST:   strings.TrimSpace(req.Header.Get("ST")),
		From: from,
	}
	if sr.ST == "" {
		return nil, fmt.Errorf("%w: missing ST", ErrMalformedSearch)
	}

	// MX is optional for unicast searches.
	if v := strings.TrimSpace(req.Header.Get("MX")); v != "" {
		mx, err := strconv.Atoi(v)
		if err != nil || mx < 0 {
			return nil, fmt.Errorf("%w: MX is %q", ErrMalformedSearch, v)
		}
		sr.MX = mx
	}

	return sr, nil
}

// Matches returns the identities of rec that answer the request. ssdp:all
// matches all of them.
func (r *SearchRequest) Matches(rec *device.Record) []Identity {
	ids := Identities(rec)
	if r.ST == SearchAll {
		return ids
	}
	for _, id := range ids {
		if id.NT == r.ST {
			return []Identity{id}
		}
	}
	return nil
}

// MaxDelay is the upper bound of the response delay: MX seconds, capped at
// limit.
func (r *SearchRequest) MaxDelay(limit time.Duration) time.Duration {
	if r.MX <= 0 || limit <= 0 {
		return 0
	}
	// Compare in whole seconds so a huge MX cannot overflow.
	if r.MX > int(limit/time.Second) {
		return limit
	}
	return time.Duration(r.MX) * time.Second
}

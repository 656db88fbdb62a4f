package clientip

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(remote, xff string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	return req
}

func TestRealClientIP(t *testing.T) {
	assert.Equal(t, "203.0.113.7", RealClientIP(request("203.0.113.7:5555", "")))
	assert.Equal(t, "::1", RealClientIP(request("[::1]:80", "")))
	assert.Equal(t, "bogus", RealClientIP(request("bogus", "")))
}

func TestResolver(t *testing.T) {
	r, err := New([]string{"10.0.0.0/8", "127.0.0.1", " "})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"untrusted peer ignores header", "203.0.113.7:1", "1.2.3.4", "203.0.113.7"},
		{"trusted peer without header", "10.1.1.1:1", "", "10.1.1.1"},
		{"single hop", "10.1.1.1:1", "198.51.100.2", "198.51.100.2"},
		{"skips trusted hops", "127.0.0.1:1", "198.51.100.2, 10.0.0.5", "198.51.100.2"},
		{"spoofed left entry is not trusted", "10.1.1.1:1", "6.6.6.6, 198.51.100.2", "198.51.100.2"},
		{"all hops trusted", "10.1.1.1:1", "10.0.0.9, 10.0.0.5", "10.0.0.9"},
		{"malformed hop stops the walk", "10.1.1.1:1", "198.51.100.2, junk", "10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ClientIP(request(tt.remote, tt.xff)))
		})
	}
}

func TestResolver_NilTrustsNobody(t *testing.T) {
	var r *Resolver
	assert.Equal(t, "10.1.1.1", r.ClientIP(request("10.1.1.1:1", "198.51.100.2")))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = New([]string{"not-an-ip"})
	assert.Error(t, err)
}

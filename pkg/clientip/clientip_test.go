package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	cases := map[string]string{
		"192.0.2.1:1234":       "192.0.2.1",
		"192.0.2.1":            "192.0.2.1",
		"[2001:db8::1]:443":    "2001:db8::1",
		"2001:0db8:0000::0001": "2001:db8::1",
		"":                     Unknown,
		"  10.0.0.7:80 ":       "10.0.0.7",
	}
	for remote, want := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = remote
		assert.Equal(t, want, RealClientIP(r), "remote %q", remote)
	}
}

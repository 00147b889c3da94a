package rnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointRoundTrip(t *testing.T) {
	cases := []Endpoint{
		{IPv4: 0, Port: 0},
		{IPv4: 0x7f000001, Port: 8080},
		{IPv4: 0xffffffff, Port: 65535},
		{IPv4: 0x0a000001, Port: 1},
	}
	for _, ep := range cases {
		s := ep.String()
		parsed, ok := ParseEndpoint(s)
		assert.True(t, ok, "expected %q to parse", s)
		assert.Equal(t, ep, parsed, "expected parse-then-format of %q to round-trip", s)
	}
}

func TestParseEndpointRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"127.0.0.1",
		"256.0.0.1:80",
		"127.0.0.1:99999",
		"1.2.3:80",
		"127.0.0.1:",
		"not-an-ip:80",
	}
	for _, s := range bad {
		_, ok := ParseEndpoint(s)
		assert.False(t, ok, "expected %q to fail to parse", s)
	}
}

func TestParseIPv4ConsumesOnlyThePrefix(t *testing.T) {
	v, n, ok := ParseIPv4("10.0.0.1:9000")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x0a000001), v)
	assert.Equal(t, len("10.0.0.1"), n)
}

func TestEndpointValid(t *testing.T) {
	ep, ok := ParseEndpoint("1.2.3.4:5")
	assert.True(t, ok)
	assert.True(t, ep.Valid())

	bad := Endpoint{Port: PortError}
	assert.False(t, bad.Valid())
}

func TestEndpointStringFormat(t *testing.T) {
	ep := Endpoint{IPv4: 0x01020304, Port: 443}
	assert.Equal(t, "1.2.3.4:443", ep.String())
}

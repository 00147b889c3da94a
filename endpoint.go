package rnet

import (
	"strconv"
	"strings"
)

// PortError is the sentinel port value marking a failed parse.
const PortError int32 = -1

// Endpoint is an IPv4 address (host-order) paired with a port.
type Endpoint struct {
	IPv4 uint32
	Port int32
}

// Valid reports whether the endpoint survived parsing.
func (e Endpoint) Valid() bool { return e.Port != PortError }

// String renders the endpoint as dotted-quad:port.
func (e Endpoint) String() string {
	return ipv4ToString(e.IPv4) + ":" + strconv.Itoa(int(e.Port))
}

func ipv4ToString(v uint32) string {
	c4 := v & 0xff
	c3 := (v >> 8) & 0xff
	c2 := (v >> 16) & 0xff
	c1 := (v >> 24) & 0xff
	return strconv.FormatUint(uint64(c1), 10) + "." +
		strconv.FormatUint(uint64(c2), 10) + "." +
		strconv.FormatUint(uint64(c3), 10) + "." +
		strconv.FormatUint(uint64(c4), 10)
}

// ParseIPv4 parses a leading dotted-quad prefix of s and returns the
// host-order value along with the number of bytes consumed. It is
// deliberately prefix-based rather than whole-string so ParseEndpoint can
// reuse it against a combined "ip:port" string.
func ParseIPv4(s string) (ipv4 uint32, consumed int, ok bool) {
	var octets [4]uint32
	pos := 0
	for i := 0; i < 4; i++ {
		start := pos
		for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
			pos++
		}
		if pos == start {
			return 0, 0, false
		}
		n, err := strconv.ParseUint(s[start:pos], 10, 32)
		if err != nil || n > 255 {
			return 0, 0, false
		}
		octets[i] = uint32(n)
		if i < 3 {
			if pos >= len(s) || s[pos] != '.' {
				return 0, 0, false
			}
			pos++
		}
	}
	ipv4 = (octets[0] << 24) | (octets[1] << 16) | (octets[2] << 8) | octets[3]
	return ipv4, pos, true
}

// ParsePort parses a decimal port in [0, 65535] from the start of s and
// returns the number of bytes consumed.
func ParsePort(s string) (port int32, consumed int, ok bool) {
	pos := 0
	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		pos++
	}
	if pos == 0 {
		return PortError, 0, false
	}
	n, err := strconv.ParseUint(s[:pos], 10, 32)
	if err != nil || n > 65535 {
		return PortError, 0, false
	}
	return int32(n), pos, true
}

// ParseEndpoint parses "a.b.c.d:port". On any malformed octet, port, or
// missing separator it returns an Endpoint with Port == PortError.
func ParseEndpoint(s string) (Endpoint, bool) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return Endpoint{Port: PortError}, false
	}
	ipv4, consumed, ok := ParseIPv4(s[:idx])
	if !ok || consumed != idx {
		return Endpoint{Port: PortError}, false
	}
	port, consumed, ok := ParsePort(s[idx+1:])
	if !ok || consumed != len(s)-idx-1 {
		return Endpoint{Port: PortError}, false
	}
	return Endpoint{IPv4: ipv4, Port: port}, true
}

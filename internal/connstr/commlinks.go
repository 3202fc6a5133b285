package connstr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingSubAttribute is returned when a composite attribute lacks a
// sub-attribute the translator needs
var ErrMissingSubAttribute = errors.New("missing required sub-attribute")

// TCPIPPrefix introduces the TCP/IP parameter list of a CommLinks value
const TCPIPPrefix = "TCPIP"

// DefaultLocation is used when CommLinks names TCP/IP without parameters
const DefaultLocation = "localhost"

// ParseParams splits a "k1=v1;k2=v2" list. Only the first '=' of an entry
// separates key from value; entries without '=' are skipped. Later
// duplicates win.
func ParseParams(s string) map[string]string {
	out := make(map[string]string)
	for _, entry := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = v
	}
	return out
}

// lookup finds a parameter by case-insensitive name
func lookup(params map[string]string, name string) (string, bool) {
	if v, ok := params[name]; ok {
		return v, true
	}
	for k, v := range params {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// CommLinksLocation derives a host[:port] location from a CommLinks value
// such as "TCPIP{IP=PC-2015;DoBroad=No;ServerPort=8888}".
//
// ok is false when the value does not start with the TCPIP prefix; such
// values are ignored rather than rejected.
func CommLinksLocation(links string) (location string, ok bool, err error) {
	if len(links) < len(TCPIPPrefix) || !strings.EqualFold(links[:len(TCPIPPrefix)], TCPIPPrefix) {
		return "", false, nil
	}

	rest := links[len(TCPIPPrefix):]
	if len(rest) <= 3 {
		return DefaultLocation, true, nil
	}

	params := ParseParams(rest[1 : len(rest)-1])
	ip, found := lookup(params, "IP")
	if !found {
		return "", true, fmt.Errorf("CommLinks %q: IP: %w", links, ErrMissingSubAttribute)
	}
	if port, found := lookup(params, "ServerPort"); found {
		return ip + ":" + port, true, nil
	}
	return ip, true, nil
}

package net

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"LocalBoard/internal/config"
)

// GetOutgoingIP finds the local address other machines on the network can reach. No
// packets are sent: dialing UDP only selects a route.
func GetOutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// Offline network; pick an interface instead.
		return localIPFallback()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

func localIPFallback() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String(), nil
			}
		}
	}
	return "127.0.0.1", nil
}

// ShareLink is the link a host hands out so others can join its board.
func ShareLink(ip string, port int) string {
	return config.URLScheme + net.JoinHostPort(ip, strconv.Itoa(port))
}

// ParseShareLink returns the host:port inside a share link.
func ParseShareLink(link string) (string, error) {
	hostport, ok := strings.CutPrefix(link, config.URLScheme)
	if !ok {
		return "", fmt.Errorf("link %q must start with %s", link, config.URLScheme)
	}
	hostport = strings.TrimSuffix(hostport, "/")
	if _, _, err := net.SplitHostPort(hostport); err != nil {
		return "", fmt.Errorf("link %q: %w", link, err)
	}
	return hostport, nil
}

// HostEndpoints are the addresses a host derives from the address its server bound.
type HostEndpoints struct {
	// Share is the link handed to other machines.
	Share string
	// Local is the websocket URL the host's own window joins through.
	Local string
	Port  int
}

// Endpoints derives the share link and the local websocket URL from a bound listen
// address. A wildcard host is replaced by the outgoing IP for sharing and by loopback
// for the host's own connection.
func Endpoints(bound string) (HostEndpoints, error) {
	host, portStr, err := net.SplitHostPort(bound)
	if err != nil {
		return HostEndpoints{}, fmt.Errorf("bound address %q: %w", bound, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return HostEndpoints{}, fmt.Errorf("bound address %q has no usable port", bound)
	}

	shareHost, localHost := host, host
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		localHost = "127.0.0.1"
		shareHost, err = GetOutgoingIP()
		if err != nil {
			shareHost = localHost
		}
	}
	return HostEndpoints{
		Share: ShareLink(shareHost, port),
		Local: "ws://" + net.JoinHostPort(localHost, portStr) + "/ws",
		Port:  port,
	}, nil
}

// WebSocketURL turns a share link into the coordinator's websocket endpoint.
func WebSocketURL(link string) (string, error) {
	hostport, err := ParseShareLink(link)
	if err != nil {
		return "", err
	}
	return "ws://" + hostport + "/ws", nil
}

package chainutils

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const externalIPService = "https://api.ipify.org"

// GetExternalIP queries a public IP service and returns the external IPv4 address.
func GetExternalIP(ctx context.Context) (net.IP, error) {
	resp, err := resty.New().
		SetTimeout(5 * time.Second).
		R().
		SetContext(ctx).
		Get(externalIPService)
	if err != nil {
		log.Error().Err(err).Msg("failed to query external IP")
		return nil, fmt.Errorf("query external ip: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("external ip service returned status %d", resp.StatusCode())
	}

	ipStr := strings.TrimSpace(resp.String())
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return nil, fmt.Errorf("invalid ip returned: %s", ipStr)
	}
	ip = ip.To4()
	if ip == nil {
		return nil, fmt.Errorf("non-ipv4 address returned: %s", ipStr)
	}

	return ip, nil
}

// IPv4ToInt converts an IPv4 net.IP to its uint32 representation (big-endian)
func IPv4ToInt(ip net.IP) (uint32, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, fmt.Errorf("not an ipv4 address")
	}
	return binary.BigEndian.Uint32(ip4), nil
}

// ResolveIPv4 turns a literal address or hostname into an IPv4 integer.
func ResolveIPv4(address string) (uint32, error) {
	if address == "" {
		return 0, fmt.Errorf("empty address")
	}
	ip := net.ParseIP(address)
	if ip == nil {
		addrs, err := net.LookupIP(address)
		if err != nil {
			return 0, fmt.Errorf("resolve %s: %w", address, err)
		}
		for _, a := range addrs {
			if a.To4() != nil {
				ip = a
				break
			}
		}
	}
	return IPv4ToInt(ip)
}

// AxonIPInt resolves the address announced on chain: the configured address
// when it is a routable IPv4, otherwise the external IP.
func AxonIPInt(ctx context.Context, address string) int {
	if v, err := ResolveIPv4(address); err == nil && !isUnroutable(address) {
		return int(v)
	} else if address != "" {
		log.Warn().Err(err).Str("address", address).Msg("address not usable for axon, falling back to external IP")
	}

	ext, err := GetExternalIP(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to determine external IP")
		return 0
	}
	v, _ := IPv4ToInt(ext)
	return int(v)
}

func isUnroutable(address string) bool {
	ip := net.ParseIP(address)
	return ip != nil && (ip.IsUnspecified() || ip.IsLoopback())
}

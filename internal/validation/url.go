package validation

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// EndpointValidator validates the base URL of a code search instance.
type EndpointValidator struct {
	// AllowLocalhost determines if localhost endpoints are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewEndpointValidator creates a validator that accepts self-hosted
// instances on loopback and private networks.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// NewStrictEndpointValidator creates a validator that only accepts public hosts.
func NewStrictEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates an endpoint and returns it without a
// trailing slash, so request paths can be appended directly.
func (v *EndpointValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("endpoint too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("endpoint contains invalid characters")
	}

	// Add protocol if missing (default to HTTPS)
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("endpoint must use http or https protocol")
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("endpoint must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("endpoint must not embed credentials; set server.token instead")
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return "", fmt.Errorf("endpoint must not have a query or fragment")
	}
	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in endpoint path")
	}

	if err := v.validateHost(parsedURL.Host); err != nil {
		return "", err
	}

	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	return parsedURL.String(), nil
}

func (v *EndpointValidator) validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost endpoints are not permitted")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}

	if hostname == "0.0.0.0" || hostname == "255.255.255.255" {
		return fmt.Errorf("unroutable host %s", hostname)
	}
	return nil
}

// ValidateIndexID checks that id looks like an opaque GraphQL node ID.
func ValidateIndexID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("index ID cannot be empty")
	}
	if len(id) > 256 {
		return fmt.Errorf("index ID too long")
	}
	if _, err := base64.StdEncoding.DecodeString(id); err != nil {
		if _, rawErr := base64.RawStdEncoding.DecodeString(id); rawErr != nil {
			return fmt.Errorf("index ID %q is not a node ID", id)
		}
	}
	return nil
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

// isPrivateIP checks if an IP address is in a private range
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}

package helpers

import (
	"math/rand"
	"net/url"
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------

// ProxyManager rotates over a static, configured proxy list and hands out
// browser user agents. The floorsheet site rejects obvious bot agents.
type ProxyManager struct {
	proxies    []string
	userAgents []string
	index      int
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewProxyManager(proxies []string) *ProxyManager {
	// Validate and format proxies on init
	var validProxies []string
	for _, p := range proxies {
		if ValidateProxy(p) {
			validProxies = append(validProxies, FormatProxy(p))
		}
	}

	return &ProxyManager{
		proxies: validProxies,
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
			"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:88.0) Gecko/20100101 Firefox/88.0",
		},
	}
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) GetCurrentProxy() (string, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) == 0 {
		return "", nil
	}
	return pm.proxies[pm.index], nil
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) RotateProxy() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) <= 1 {
		return
	}

	pm.index = (pm.index + 1) % len(pm.proxies)
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) GetUserAgent() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if len(pm.userAgents) == 0 {
		return "Mozilla/5.0 (Go-http-client/1.1)"
	}
	return pm.userAgents[rand.Intn(len(pm.userAgents))]
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) HasProxies() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.proxies) > 0
}

// -----------------------------------------------------------------------------

// ValidateProxy checks if a proxy string is roughly valid.
func ValidateProxy(proxyStr string) bool {
	u, err := url.Parse(proxyStr)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "socks5" || u.Scheme == "") // Allow missing scheme for FormatProxy to fix
}

// -----------------------------------------------------------------------------

// FormatProxy ensures the proxy has a scheme.
func FormatProxy(proxyStr string) string {
	if !strings.Contains(proxyStr, "://") {
		return "http://" + proxyStr
	}
	return proxyStr
}

package network

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/interfaces"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"
)

type Manager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewManager(cfg *models.MConfig, log *logger.Logger) *Manager {
	nm := &Manager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(cfg.Network.Proxies),
		Logger:       log,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *Manager) createClient() *http.Client {
	transport := &http.Transport{}

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *Manager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	nm.Client = nm.createClient()
}

// -----------------------------------------------------------------------------

// userAgent returns the configured agent, or a rotating browser agent.
func (nm *Manager) userAgent() string {
	if nm.Config.Network.UserAgent != "" {
		return nm.Config.Network.UserAgent
	}
	return nm.ProxyManager.GetUserAgent()
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and proxy rotation. Exhausting the
// retry budget is a fatal fetch error: the caller must abort the run rather
// than continue with a gap in the page sequence.
func (nm *Manager) Get(urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	finalUrl := reqUrl.String()

	var body []byte
	first := true
	err = helpers.RetryWithBackoff(nm.Logger, finalUrl, nm.Config.Network.MaxRetries+1, time.Second, func() error {
		if !first {
			nm.rotateProxy()
		}
		first = false

		b, err := nm.fetch(finalUrl)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// -----------------------------------------------------------------------------

// fetch performs a single attempt. All failures are transient: the retry
// wrapper decides when they become fatal.
func (nm *Manager) fetch(finalUrl string) ([]byte, error) {
	req, err := http.NewRequest("GET", finalUrl, nil)
	if err != nil {
		return nil, helpers.NewTransientFetchError("invalid request", err)
	}

	req.Header.Set("User-Agent", nm.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, helpers.NewTransientFetchError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 || resp.StatusCode == 403 {
		nm.Logger.Info("Request blocked (%d). Rotating proxy.", resp.StatusCode)
		return nil, helpers.NewTransientFetchError(fmt.Sprintf("blocked (status %d)", resp.StatusCode), nil)
	}

	if resp.StatusCode != 200 {
		return nil, helpers.NewTransientFetchError(fmt.Sprintf("bad status: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewTransientFetchError("read body failed", err)
	}
	return body, nil
}

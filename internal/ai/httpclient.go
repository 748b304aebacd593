package ai

import (
	"fmt"
	"net/http"
	"net/url"
)

// NewHTTPClient returns the client used for provider calls. With an empty
// proxyAddr it honours HTTP_PROXY/HTTPS_PROXY like the default transport.
func NewHTTPClient(proxyAddr string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyAddr != "" {
		proxyURL, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", proxyAddr, err)
		}
		if proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy address %q: want scheme://host:port", proxyAddr)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{Transport: transport}, nil
}

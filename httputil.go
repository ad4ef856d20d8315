package taxlots

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// contains http utils shared by the rate providers.

// diskCache implements a simple disk cache for HTTP responses.
type diskCache struct {
	base   http.RoundTripper
	dir    string
	logger *zap.Logger
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	// one key per day, so that the cache expires every day.
	key := fmt.Sprintf("%s %s %s", Today(), req.Method, req.URL.String())
	key = fmt.Sprintf("taxlots-%x", sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		c.logger.Debug("cache hit", zap.String("url", req.URL.String()))
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("http get",
		zap.String("method", resp.Request.Method),
		zap.String("host", resp.Request.URL.Host),
		zap.String("path", resp.Request.URL.Path),
		zap.String("status", resp.Status),
	)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.logger.Warn("cache write error (ignored)", zap.Error(err))
	}
	return resp, nil
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk. The response body stays readable.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// DailyClient returns an http client whose responses are cached on disk for the day.
func DailyClient(logger *zap.Logger) *http.Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: os.TempDir(), logger: logger}}
}

// GetJSON performs an HTTP GET request and unmarshals the JSON response into data.
func GetJSON(client *http.Client, addr string, data any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

package teeclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// maxReportDataSize is the TEE quote report data limit.
const maxReportDataSize = 64

// Client talks to the TEE service over HTTP, either via TCP or a local
// unix socket.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a TEE service client for the given endpoint. Endpoints
// of the form unix:///path/to.sock are dialed over the socket; anything
// else is used as an HTTP base URL.
func NewClient(endpoint string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid tee endpoint: %w", err)
	}

	switch u.Scheme {
	case "unix":
		socketPath := u.Path
		if socketPath == "" {
			socketPath = u.Opaque
		}
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		}
		return &Client{
			baseURL: "http://localhost",
			client:  &http.Client{Transport: transport},
		}, nil
	case "http", "https":
		return &Client{
			baseURL: strings.TrimSuffix(endpoint, "/"),
			client:  http.DefaultClient,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported tee endpoint scheme %q", u.Scheme)
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	return &Client{baseURL: c.baseURL, client: hc}
}

// Info returns instance identity and measured TCB state.
func (c *Client) Info(ctx context.Context) (*interfaces.TEEInfo, error) {
	body, err := c.get(ctx, "/info")
	if err != nil {
		return nil, err
	}

	var info interfaces.TEEInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("could not parse tee info response: %w", err)
	}
	return &info, nil
}

type keyResponse struct {
	Key            string   `json:"key"`
	SignatureChain []string `json:"signature_chain"`
}

// GetKey requests the deterministic key identified by uniqueID. The TEE
// returns a 32-byte hex-encoded secp256k1 scalar plus a signature chain
// attesting the derivation occurred inside the measured enclave.
func (c *Client) GetKey(ctx context.Context, uniqueID string) (*interfaces.TEEKeyResult, error) {
	body, err := c.get(ctx, "/key/"+url.PathEscape(uniqueID))
	if err != nil {
		return nil, err
	}

	var resp keyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not parse tee key response: %w", err)
	}

	key, err := hex.DecodeString(strings.TrimPrefix(resp.Key, "0x"))
	if err != nil {
		return nil, fmt.Errorf("tee returned malformed key material: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("tee returned %d-byte key, expected 32", len(key))
	}

	return &interfaces.TEEKeyResult{
		Key:            key,
		SignatureChain: resp.SignatureChain,
	}, nil
}

type quoteResponse struct {
	Quote    string `json:"quote"`
	EventLog string `json:"event_log"`
}

// GetQuote requests a hardware quote binding reportData to the enclave's
// measured state. reportData must be at most 64 bytes.
func (c *Client) GetQuote(ctx context.Context, reportData []byte) (*interfaces.TEEQuoteResult, error) {
	if len(reportData) > maxReportDataSize {
		return nil, fmt.Errorf("report data is %d bytes, maximum is %d", len(reportData), maxReportDataSize)
	}

	body, err := c.get(ctx, "/attest/"+hex.EncodeToString(reportData))
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not parse tee quote response: %w", err)
	}

	quote, err := hex.DecodeString(strings.TrimPrefix(resp.Quote, "0x"))
	if err != nil {
		return nil, fmt.Errorf("tee returned malformed quote: %w", err)
	}

	return &interfaces.TEEQuoteResult{
		Quote:    quote,
		EventLog: resp.EventLog,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrTEEUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", interfaces.ErrTEEUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tee service returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

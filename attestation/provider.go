package attestation

import (
	"context"
	"fmt"

	tdx_client "github.com/google/go-tdx-guest/client"

	"github.com/attestable/tee-agent-registry/interfaces"
)

// QuoteProvider is a source of hardware quotes over 64-byte report data.
type QuoteProvider interface {
	// Mode tags the quotes this provider produces, e.g. "tdx".
	Mode() string

	Quote(ctx context.Context, reportData [ReportDataSize]byte) (*interfaces.TEEQuoteResult, error)
}

// TEEQuoteProvider requests quotes from the TEE service.
type TEEQuoteProvider struct {
	Client interfaces.TEEClient
}

// Mode returns "tdx".
func (*TEEQuoteProvider) Mode() string { return ModeTDX }

// Quote requests a quote over reportData from the TEE service.
func (p *TEEQuoteProvider) Quote(ctx context.Context, reportData [ReportDataSize]byte) (*interfaces.TEEQuoteResult, error) {
	return p.Client.GetQuote(ctx, reportData[:])
}

// DCAPQuoteProvider obtains quotes directly from TDX hardware, preferring
// the configfs interface and falling back to the legacy device. Used when
// the agent runs inside a TD without a separate TEE service endpoint.
type DCAPQuoteProvider struct{}

// Mode returns "tdx".
func (DCAPQuoteProvider) Mode() string { return ModeTDX }

// Quote obtains a raw quote from the local TDX quoting infrastructure.
func (DCAPQuoteProvider) Quote(ctx context.Context, reportData [ReportDataSize]byte) (*interfaces.TEEQuoteResult, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		raw, err := qp.GetRawQuote(reportData)
		if err != nil {
			return nil, fmt.Errorf("%w: configfs quote: %v", interfaces.ErrTEEUnavailable, err)
		}
		return &interfaces.TEEQuoteResult{Quote: raw}, nil
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: opening tdx device: %v", interfaces.ErrTEEUnavailable, err)
	}
	defer qd.Close()

	raw, err := tdx_client.GetRawQuote(qd, reportData)
	if err != nil {
		return nil, fmt.Errorf("%w: device quote: %v", interfaces.ErrTEEUnavailable, err)
	}
	return &interfaces.TEEQuoteResult{Quote: raw}, nil
}

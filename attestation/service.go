package attestation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/kms"
	"github.com/attestable/tee-agent-registry/metrics"
)

const (
	// ReportDataSize is the fixed application-data width every quote binds.
	ReportDataSize = 64

	// ModeTDX tags quotes produced by real TDX quoting infrastructure.
	ModeTDX = "tdx"

	// ModeDevelopment tags degraded results produced without hardware
	// backing. Not trustworthy; callers must check.
	ModeDevelopment = "development"

	// appDataMethod names the application-data construction so verifiers
	// know how to rebuild it.
	appDataMethod = "keccak256(address) || sha256(domain)"
)

// ApplicationData is the payload embedded in a quote, binding it to this
// agent's key and domain.
type ApplicationData struct {
	Raw    []byte `json:"raw"`
	Size   int    `json:"size"`
	Method string `json:"method"`
	Domain string `json:"domain"`
}

// Hex returns the payload hex-encoded for independent verification.
func (d ApplicationData) Hex() string {
	return hex.EncodeToString(d.Raw)
}

// Quote is the attestation result. Mode distinguishes hardware-backed
// quotes from explicit development-mode degradation.
type Quote struct {
	Quote           []byte          `json:"quote"`
	EventLog        string          `json:"event_log"`
	ApplicationData ApplicationData `json:"application_data"`
	Mode            string          `json:"mode"`
}

// ReportData builds the 64-byte application-data payload for an address and
// domain: keccak256(address) || sha256(domain).
func ReportData(addr common.Address, domain string) [ReportDataSize]byte {
	var reportData [ReportDataSize]byte
	commitment := crypto.Keccak256(addr.Bytes())
	domainHash := sha256.Sum256([]byte(domain))
	copy(reportData[:32], commitment)
	copy(reportData[32:], domainHash[:])
	return reportData
}

// Service produces attestation quotes for one agent instance.
type Service struct {
	keys     *kms.KeySource
	provider QuoteProvider
	domain   string
	timeout  time.Duration
	log      *slog.Logger
}

// NewService creates an attestation service. provider may be nil, in which
// case every result is an explicit development-mode quote. timeout bounds
// the quote round trip; zero means the caller's context alone bounds it.
func NewService(cfg *interfaces.AgentConfig, keys *kms.KeySource, provider QuoteProvider, timeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		keys:     keys,
		provider: provider,
		domain:   cfg.Domain,
		timeout:  timeout,
		log:      log,
	}
}

// GetAttestation requests a fresh quote over the agent's application data.
// Key derivation failures are surfaced; quote-source failures degrade to an
// explicit development-mode result.
func (s *Service) GetAttestation(ctx context.Context) (*Quote, error) {
	key, err := s.keys.DerivedKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("deriving key for attestation: %w", err)
	}

	reportData := ReportData(key.Address, s.domain)
	appData := ApplicationData{
		Raw:    reportData[:],
		Size:   ReportDataSize,
		Method: appDataMethod,
		Domain: s.domain,
	}

	if s.provider == nil {
		return s.developmentQuote(reportData, appData), nil
	}

	quoteCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		quoteCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.provider.Quote(quoteCtx, reportData)
	if err != nil {
		s.log.Warn("Quote source unavailable, returning development-mode attestation", "err", err)
		return s.developmentQuote(reportData, appData), nil
	}

	metrics.AttestationsTotal.WithLabelValues(s.provider.Mode()).Inc()
	return &Quote{
		Quote:           res.Quote,
		EventLog:        res.EventLog,
		ApplicationData: appData,
		Mode:            s.provider.Mode(),
	}, nil
}

func (s *Service) developmentQuote(reportData [ReportDataSize]byte, appData ApplicationData) *Quote {
	metrics.AttestationsTotal.WithLabelValues(ModeDevelopment).Inc()
	return &Quote{
		Quote:           []byte(fmt.Sprintf("development quote over %x", reportData)),
		ApplicationData: appData,
		Mode:            ModeDevelopment,
	}
}

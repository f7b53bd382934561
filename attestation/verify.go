package attestation

import (
	"bytes"
	"encoding/hex"
	"fmt"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
)

// Measurements maps register names (mrtd, rtmr0..rtmr3) to hex values
// extracted from a verified quote.
type Measurements map[string]string

// VerifyQuote checks a raw TDX quote against its collateral and confirms
// it covers the expected report data. Returns the quote's measurement
// registers for comparison against published reference values. This is
// operator tooling; the agent itself never verifies its own quotes.
func VerifyQuote(reportData [ReportDataSize]byte, rawQuote []byte) (Measurements, error) {
	protoQuote, err := tdx_abi.QuoteToProto(rawQuote)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote: %w", err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return nil, fmt.Errorf("unsupported quote type: %T", protoQuote)
	}

	if err := verify.TdxQuote(protoQuote, verify.DefaultOptions()); err != nil {
		return nil, fmt.Errorf("quote verification failed: %w", err)
	}

	if !bytes.Equal(v4Quote.TdQuoteBody.ReportData, reportData[:]) {
		return nil, fmt.Errorf("quote covers report data %x, expected %x", v4Quote.TdQuoteBody.ReportData, reportData[:])
	}

	return Measurements{
		"mrtd":  hex.EncodeToString(v4Quote.TdQuoteBody.MrTd),
		"rtmr0": hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[0]),
		"rtmr1": hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[1]),
		"rtmr2": hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[2]),
		"rtmr3": hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[3]),
	}, nil
}

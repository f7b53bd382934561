package agent

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/signer"
)

// Domain separator tags for structured signing. Distinct tags keep a
// feedback authorization from being replayed as a validation request.
const (
	feedbackDomainTag   = "erc8004.feedback-authorization.v1"
	validationDomainTag = "erc8004.validation-request.v1"
)

func feedbackPayload(clientID, serverID *big.Int) []byte {
	payload := make([]byte, 64)
	clientID.FillBytes(payload[:32])
	serverID.FillBytes(payload[32:])
	return payload
}

func validationPayload(validatorID, serverID *big.Int, dataHash [32]byte) []byte {
	payload := make([]byte, 96)
	validatorID.FillBytes(payload[:32])
	serverID.FillBytes(payload[32:64])
	copy(payload[64:], dataHash[:])
	return payload
}

// FeedbackSignature produces the signature the reputation registry expects
// for a (clientID, this agent) authorization.
func FeedbackSignature(s *signer.Signer, clientID, serverID *big.Int) ([]byte, error) {
	return s.SignMessage(feedbackDomainTag, feedbackPayload(clientID, serverID))
}

// ValidationSignature produces the signature the validation registry expects
// for a (validatorID, this agent, dataHash) request.
func ValidationSignature(s *signer.Signer, validatorID, serverID *big.Int, dataHash [32]byte) ([]byte, error) {
	return s.SignMessage(validationDomainTag, validationPayload(validatorID, serverID, dataHash))
}

// AuthorizeFeedback signs and submits a feedback authorization allowing
// clientID to rate this agent. The agent must be REGISTERED.
func (a *Agent) AuthorizeFeedback(ctx context.Context, clientID *big.Int) (*types.Transaction, error) {
	if a.reputation == nil {
		return nil, fmt.Errorf("%w: no reputation registry configured", interfaces.ErrInvalidConfig)
	}

	serverID, err := a.registeredID()
	if err != nil {
		return nil, err
	}
	s, err := a.Signer(ctx)
	if err != nil {
		return nil, err
	}

	sig, err := FeedbackSignature(s, clientID, serverID)
	if err != nil {
		return nil, fmt.Errorf("signing feedback authorization: %w", err)
	}

	tx, err := a.reputation.AuthorizeFeedback(ctx, clientID, serverID, sig)
	if err != nil {
		return nil, fmt.Errorf("submitting feedback authorization: %w", err)
	}
	a.log.Info("feedback authorized", "client_id", clientID, "tx", tx.Hash())
	return tx, nil
}

// RequestValidation signs and submits a validation request asking
// validatorID to validate content identified by dataHash. The agent must be
// REGISTERED.
func (a *Agent) RequestValidation(ctx context.Context, validatorID *big.Int, dataHash [32]byte) (*types.Transaction, error) {
	if a.validation == nil {
		return nil, fmt.Errorf("%w: no validation registry configured", interfaces.ErrInvalidConfig)
	}

	serverID, err := a.registeredID()
	if err != nil {
		return nil, err
	}
	s, err := a.Signer(ctx)
	if err != nil {
		return nil, err
	}

	sig, err := ValidationSignature(s, validatorID, serverID, dataHash)
	if err != nil {
		return nil, fmt.Errorf("signing validation request: %w", err)
	}

	tx, err := a.validation.RequestValidation(ctx, validatorID, serverID, dataHash, sig)
	if err != nil {
		return nil, fmt.Errorf("submitting validation request: %w", err)
	}
	a.log.Info("validation requested", "validator_id", validatorID, "data_hash", fmt.Sprintf("0x%x", dataHash), "tx", tx.Hash())
	return tx, nil
}

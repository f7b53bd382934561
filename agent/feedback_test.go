package agent

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/registry"
	"github.com/attestable/tee-agent-registry/signer"
)

func TestFeedbackSignatureRecovers(t *testing.T) {
	a := newRoleAgent(t, interfaces.RoleServer, nil)
	s, err := a.Signer(context.Background())
	require.NoError(t, err)

	clientID, serverID := big.NewInt(7), big.NewInt(13)
	sig, err := FeedbackSignature(s, clientID, serverID)
	require.NoError(t, err)
	require.Len(t, sig, signer.SignatureLength)

	digest := signer.MessageDigest(feedbackDomainTag, feedbackPayload(clientID, serverID))
	recovered, err := signer.RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), recovered)
}

func TestFeedbackAndValidationSignaturesDiffer(t *testing.T) {
	a := newRoleAgent(t, interfaces.RoleServer, nil)
	s, err := a.Signer(context.Background())
	require.NoError(t, err)

	validatorID, serverID := big.NewInt(7), big.NewInt(13)
	var dataHash [32]byte

	feedbackSig, err := FeedbackSignature(s, validatorID, serverID)
	require.NoError(t, err)
	validationSig, err := ValidationSignature(s, validatorID, serverID, dataHash)
	require.NoError(t, err)

	assert.NotEqual(t, feedbackSig, validationSig)
}

func TestAuthorizeFeedbackRequiresRegistration(t *testing.T) {
	ctx := context.Background()

	cfg := testAgentConfig(interfaces.RoleServer)
	keys, err := newTestKeys(t, cfg)
	require.NoError(t, err)

	reputation := new(registry.MockReputationRegistry)
	a, err := New(Config{
		AgentConfig: cfg,
		Keys:        keys,
		Identity:    registry.NewFakeIdentityRegistry(big.NewInt(1)),
		Reputation:  reputation,
	})
	require.NoError(t, err)

	_, err = a.AuthorizeFeedback(ctx, big.NewInt(2))
	assert.ErrorIs(t, err, interfaces.ErrAgentNotFound)
	reputation.AssertNotCalled(t, "AuthorizeFeedback")
}

func TestAuthorizeFeedbackSubmits(t *testing.T) {
	ctx := context.Background()

	cfg := testAgentConfig(interfaces.RoleServer)
	keys, err := newTestKeys(t, cfg)
	require.NoError(t, err)

	wantTx := types.NewTx(&types.LegacyTx{Nonce: 1})
	reputation := new(registry.MockReputationRegistry)
	reputation.On("AuthorizeFeedback", mock.Anything, big.NewInt(2), mock.Anything, mock.Anything).
		Return(wantTx, nil)

	a, err := New(Config{
		AgentConfig: cfg,
		Keys:        keys,
		Identity:    registry.NewFakeIdentityRegistry(big.NewInt(1)),
		Reputation:  reputation,
	})
	require.NoError(t, err)

	_, err = a.Register(ctx)
	require.NoError(t, err)

	tx, err := a.AuthorizeFeedback(ctx, big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, wantTx.Hash(), tx.Hash())
	reputation.AssertExpectations(t)
}

func TestRequestValidationSubmits(t *testing.T) {
	ctx := context.Background()

	cfg := testAgentConfig(interfaces.RoleValidator)
	keys, err := newTestKeys(t, cfg)
	require.NoError(t, err)

	dataHash := [32]byte{0xab}
	wantTx := types.NewTx(&types.LegacyTx{Nonce: 2})
	validation := new(registry.MockValidationRegistry)
	validation.On("RequestValidation", mock.Anything, big.NewInt(9), mock.Anything, dataHash, mock.Anything).
		Return(wantTx, nil)

	a, err := New(Config{
		AgentConfig: cfg,
		Keys:        keys,
		Identity:    registry.NewFakeIdentityRegistry(big.NewInt(1)),
		Validation:  validation,
	})
	require.NoError(t, err)

	_, err = a.Register(ctx)
	require.NoError(t, err)

	_, err = a.RequestValidation(ctx, big.NewInt(9), dataHash)
	require.NoError(t, err)
	validation.AssertExpectations(t)
}

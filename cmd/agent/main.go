package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/attestable/tee-agent-registry/agent"
	"github.com/attestable/tee-agent-registry/attestation"
	"github.com/attestable/tee-agent-registry/cmd/flags"
	"github.com/attestable/tee-agent-registry/httpserver"
	"github.com/attestable/tee-agent-registry/interfaces"
	"github.com/attestable/tee-agent-registry/kms"
	"github.com/attestable/tee-agent-registry/registry"
	"github.com/attestable/tee-agent-registry/storage"
	"github.com/attestable/tee-agent-registry/teeclient"
)

var cliFlags = append([]cli.Flag{
	flags.DomainFlag,
	flags.SaltFlag,
	flags.RoleFlag,
	flags.RpcAddrFlag,
	flags.ChainIDFlag,
	flags.TEEEndpointFlag,
	flags.RawPrivateKeyFlag,
	flags.IdentityRegistryFlag,
	flags.ReputationRegistryFlag,
	flags.ValidationRegistryFlag,
	flags.StorageFlag,
	flags.ListenAddrFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:   "agent",
		Usage:  "Run a TEE-backed agent with on-chain identity",
		Flags:  cliFlags,
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func registryAddresses(cCtx *cli.Context) (interfaces.RegistryAddresses, error) {
	var addrs interfaces.RegistryAddresses
	var err error

	addrs.Identity, err = interfaces.NewContractAddressFromHex(cCtx.String(flags.IdentityRegistryFlag.Name))
	if err != nil {
		return addrs, err
	}
	if hex := cCtx.String(flags.ReputationRegistryFlag.Name); hex != "" {
		addrs.Reputation, err = interfaces.NewContractAddressFromHex(hex)
		if err != nil {
			return addrs, err
		}
	}
	if hex := cCtx.String(flags.ValidationRegistryFlag.Name); hex != "" {
		addrs.Validation, err = interfaces.NewContractAddressFromHex(hex)
		if err != nil {
			return addrs, err
		}
	}
	return addrs, nil
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	role, err := interfaces.ParseAgentRole(cCtx.String(flags.RoleFlag.Name))
	if err != nil {
		return err
	}

	teeEndpoint := cCtx.String(flags.TEEEndpointFlag.Name)
	cfg := &interfaces.AgentConfig{
		Domain:        cCtx.String(flags.DomainFlag.Name),
		Salt:          cCtx.String(flags.SaltFlag.Name),
		Role:          role,
		RPCURL:        cCtx.String(flags.RpcAddrFlag.Name),
		ChainID:       cCtx.Int64(flags.ChainIDFlag.Name),
		UseTEEAuth:    teeEndpoint != "",
		TEEEndpoint:   teeEndpoint,
		RawPrivateKey: cCtx.String(flags.RawPrivateKeyFlag.Name),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var tee interfaces.TEEClient
	if cfg.UseTEEAuth {
		tee, err = teeclient.NewClient(cfg.TEEEndpoint)
		if err != nil {
			logger.Error("Failed to create TEE client", "err", err)
			return err
		}
	}

	keys, err := kms.NewKeySource(cfg, tee)
	if err != nil {
		logger.Error("Failed to create key source", "err", err)
		return err
	}

	logger.Info("Connecting to Ethereum RPC", "address", cfg.RPCURL)
	ethClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		logger.Error("Failed to dial RPC", "err", err)
		return err
	}

	ctx := context.Background()
	key, err := keys.DerivedKey(ctx)
	if err != nil {
		logger.Error("Key derivation failed", "err", err)
		return err
	}
	logger.Info("Agent key derived", "address", key.Address)

	auth, err := bind.NewKeyedTransactorWithChainID(key.PrivateKey, big.NewInt(cfg.ChainID))
	if err != nil {
		logger.Error("Failed to create transactor", "err", err)
		return err
	}

	addrs, err := registryAddresses(cCtx)
	if err != nil {
		return err
	}

	identity, err := registry.NewIdentityClient(ethClient, ethClient, addrs.Identity)
	if err != nil {
		return err
	}
	identity.SetTransactOpts(auth)

	var reputation interfaces.ReputationRegistry
	if addrs.Reputation != (interfaces.ContractAddress{}) {
		client, err := registry.NewReputationClient(ethClient, addrs.Reputation)
		if err != nil {
			return err
		}
		client.SetTransactOpts(auth)
		reputation = client
	}

	var validation interfaces.ValidationRegistry
	if addrs.Validation != (interfaces.ContractAddress{}) {
		client, err := registry.NewValidationClient(ethClient, addrs.Validation)
		if err != nil {
			return err
		}
		client.SetTransactOpts(auth)
		validation = client
	}

	plugins := agent.NewPluginRegistry()
	a, err := agent.New(agent.Config{
		AgentConfig: cfg,
		Keys:        keys,
		Identity:    identity,
		Reputation:  reputation,
		Validation:  validation,
		Plugins:     plugins,
		Log:         logger,
	})
	if err != nil {
		logger.Error("Failed to create agent", "err", err)
		return err
	}

	var quoteProvider attestation.QuoteProvider
	if tee != nil {
		quoteProvider = &attestation.TEEQuoteProvider{Client: tee}
	}
	att := attestation.NewService(cfg, keys, quoteProvider, 10*time.Second, logger)

	regCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	identityInfo, err := a.Register(regCtx)
	cancel()
	if err != nil {
		// The agent still serves its card, status and tasks; registration
		// can be retried by restarting.
		logger.Error("Registration failed", "err", err)
	} else {
		logger.Info("Agent registered", "agent_id", identityInfo.AgentID)
	}

	if locations := cCtx.StringSlice(flags.StorageFlag.Name); len(locations) > 0 {
		uris := make([]interfaces.StorageBackendLocation, 0, len(locations))
		for _, l := range locations {
			uris = append(uris, interfaces.StorageBackendLocation(l))
		}
		backend, err := storage.NewFactory(logger).CreateMultiBackend(uris)
		if err != nil {
			logger.Error("Failed to create storage backends", "err", err)
			return err
		}
		if _, err := a.PublishCard(ctx, backend); err != nil {
			logger.Error("Failed to publish agent card", "err", err)
		}
	}

	srv, err := httpserver.New(flags.ConfigureServer(cCtx, logger), httpserver.NewHandler(a, att, logger))
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}
	srv.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	logger.Info("Agent is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	srv.Shutdown()
	logger.Info("Agent shutdown complete")
	return nil
}

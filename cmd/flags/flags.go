// Package flags holds the CLI flag definitions and setup helpers shared by
// the command entry points.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/attestable/tee-agent-registry/common"
	"github.com/attestable/tee-agent-registry/httpserver"
)

func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var DomainFlag = &cli.StringFlag{
	Name:     "domain",
	Required: true,
	Usage:    "agent identity domain, e.g. agent.example.com",
}

var SaltFlag = &cli.StringFlag{
	Name:     "salt",
	Required: true,
	Usage:    "key derivation salt, disambiguates agents under one domain",
}

var RoleFlag = &cli.StringFlag{
	Name:  "role",
	Value: "SERVER",
	Usage: "agent role: SERVER, VALIDATOR, CLIENT or CUSTOM",
}

var RpcAddrFlag = &cli.StringFlag{
	Name:  "rpc-addr",
	Value: "http://127.0.0.1:8545",
	Usage: "address to connect to RPC",
}

var ChainIDFlag = &cli.Int64Flag{
	Name:  "chain-id",
	Value: 31337,
	Usage: "chain id bound into signed transactions",
}

var TEEEndpointFlag = &cli.StringFlag{
	Name:  "tee-endpoint",
	Usage: "TEE service endpoint (http://host:port or unix:///path.sock); enables TEE key derivation",
}

var RawPrivateKeyFlag = &cli.StringFlag{
	Name:    "dev-private-key",
	Usage:   "hex-encoded development private key, only used without --tee-endpoint",
	EnvVars: []string{"AGENT_DEV_PRIVATE_KEY"},
}

var IdentityRegistryFlag = &cli.StringFlag{
	Name:     "identity-registry",
	Required: true,
	Usage:    "identity registry contract address",
}

var ReputationRegistryFlag = &cli.StringFlag{
	Name:  "reputation-registry",
	Usage: "reputation registry contract address",
}

var ValidationRegistryFlag = &cli.StringFlag{
	Name:  "validation-registry",
	Usage: "validation registry contract address",
}

var StorageFlag = &cli.StringSliceFlag{
	Name:  "storage",
	Usage: "storage backend URIs for publishing agent cards (file://..., s3://...)",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}

var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}

var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}

var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/taekop/bitaekcoin/bitcoin"
	"github.com/taekop/bitaekcoin/mempool"
	"github.com/taekop/bitaekcoin/node"
	"github.com/taekop/bitaekcoin/rpc"

	"github.com/tokenized/config"
	"github.com/tokenized/logger"
	"github.com/tokenized/threads"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
)

// Config is loaded from the environment at startup. The default master key
// is the fixed identity that receives all coinbase rewards.
type Config struct {
	MasterKey  string `default:"7d37007eeadc8e7f924186b07bc0255e2de96d7d88d5d54dcd2a52711d068fba" envconfig:"MASTER_KEY" json:"master_key" masked:"true"`
	Bits       uint32 `default:"520159231" envconfig:"BITS" json:"bits"` // 0x1f00ffff
	RPCAddress string `default:":8000" envconfig:"RPC_ADDRESS" json:"rpc_address"`
}

func main() {
	ctx := logger.ContextWithLogger(context.Background(), true, true, "")

	cfg := &Config{}
	if err := config.LoadConfig(ctx, cfg); err != nil {
		logger.Fatal(ctx, "Failed to load config : %s", err)
	}

	maskedConfig, err := config.MarshalJSONMaskedRaw(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to marshal config : %s", err)
	}

	logger.InfoWithFields(ctx, []logger.Field{
		logger.String("version", buildVersion),
		logger.String("built", buildDate),
		logger.JSON("config", maskedConfig),
	}, "Starting")

	masterKey, err := bitcoin.KeyFromStr(cfg.MasterKey)
	if err != nil {
		logger.Fatal(ctx, "Invalid master key : %s", err)
	}

	ledger := node.NewNode(masterKey)
	pool := mempool.NewMempool()
	miner := node.NewMiner(ledger, pool, cfg.Bits, masterKey.PublicKey())
	server := rpc.NewServer(ledger, pool, cfg.RPCAddress)

	var wait sync.WaitGroup

	minerThread, minerComplete := threads.NewInterruptableThreadComplete("Miner",
		miner.Run, &wait)

	serverThread, serverComplete := threads.NewInterruptableThreadComplete("RPC Server",
		server.Run, &wait)

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	minerThread.Start(ctx)
	serverThread.Start(ctx)

	select {
	case <-minerComplete:
		logger.Error(ctx, "Miner completed unexpectedly")

	case <-serverComplete:
		logger.Error(ctx, "RPC server completed unexpectedly")

	case <-osSignals:
		logger.Info(ctx, "Shutdown requested")
	}

	minerThread.Stop(ctx)
	serverThread.Stop(ctx)

	wait.Wait()
	logger.Info(ctx, "Stopped")
}

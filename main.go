package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sisu-network/lib/log"

	"github.com/prizedrop/tokensend/chains/eth"
	"github.com/prizedrop/tokensend/config"
	"github.com/prizedrop/tokensend/network"
	"github.com/prizedrop/tokensend/server"
	"github.com/prizedrop/tokensend/telemetry"
)

func initialize() (*server.Server, *network.Monitor) {
	// A .env file is optional; deployments usually inject the environment
	// directly.
	godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	account, err := eth.NewSenderAccount(cfg.PrivateKey)
	if err != nil {
		panic(err)
	}

	token, err := eth.NewTokenContract(cfg.TokenAddress)
	if err != nil {
		panic(err)
	}

	client, err := eth.Dial(cfg.RpcUrl)
	if err != nil {
		panic(err)
	}

	// Fail fast when the node is unreachable or serving a different network.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RpcTimeout())
	defer cancel()
	chainId, err := client.ChainID(ctx)
	if err != nil {
		panic(fmt.Errorf("cannot reach RPC node at %s: %w", cfg.RpcUrl, err))
	}
	if chainId.Int64() != cfg.ChainId {
		panic(fmt.Errorf("node at %s serves chain %d, config expects %d", cfg.RpcUrl, chainId, cfg.ChainId))
	}

	executor := eth.NewTransferExecutor(cfg, client, account, token)
	monitor := network.NewMonitor(cfg.RpcUrl, network.DefaultCheckInterval, cfg.RpcTimeout())

	router := gin.New()
	router.Use(gin.Recovery(), telemetry.Metrics())
	server.NewApi(executor, monitor, cfg).RegisterRoutes(router)

	log.Infof("Sender account = %s, token contract = %s, chain id = %d",
		account.Address, token.Address, cfg.ChainId)

	return server.NewServer(router, cfg.ServerPort), monitor
}

func main() {
	s, monitor := initialize()

	monitor.Start()
	s.Run()
}

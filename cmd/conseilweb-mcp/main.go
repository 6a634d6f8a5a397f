package main

import (
	"os"

	applog "conseilweb/internal/log"
	mcptools "conseilweb/internal/mcp"
	"conseilweb/internal/policy"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	_ = godotenv.Load()

	// stdout carries the MCP protocol.
	applog.Configure(applog.Config{Level: os.Getenv("LOG_LEVEL"), Output: os.Stderr, Service: "conseilweb-mcp"})
	logger := applog.WithComponent("mcp")

	pol := policy.Default()
	if path := os.Getenv("POLICY_FILE"); path != "" {
		var err error
		pol, err = policy.Load(path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("failed to load policy")
		}
	}

	s := server.NewMCPServer(
		"conseilweb",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	mcptools.RegisterTools(s, pol)

	if err := server.ServeStdio(s); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

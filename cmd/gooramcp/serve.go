package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	oramcp "github.com/kutsushitaneko/mcp-server-for-oracle-database"
	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/meta"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func runServe() error {
	ctx := context.Background()

	// 1. Load ServerConfig
	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Resolve connection string. Credentials never live in the config
	// file: DB_USER, DB_PASSWORD, and optionally DB_DSN come from the
	// environment or a .env file, with an interactive fallback.
	_ = godotenv.Load()
	connString := resolveConnString(serverConfig)

	// 3. Setup logger
	logger := setupLogger(serverConfig.Logging)

	// 4. Create OracleMcp instance
	var opts []oramcp.Option
	if len(serverConfig.ServerHooks.BeforeQuery) > 0 || len(serverConfig.ServerHooks.AfterQuery) > 0 {
		opts = append(opts, oramcp.WithServerHooks(serverConfig.ServerHooks))
	}
	oraMcp, err := oramcp.New(ctx, connString, serverConfig.Config, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OracleMcp: %w", err)
	}
	defer oraMcp.Close(ctx)

	// 5. Test database connection
	logger.Info().Msg("testing database connection")
	if err := oraMcp.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("database connection test failed")
		return fmt.Errorf("database connection test failed: %w", err)
	}
	logger.Info().Msg("database connection test successful")

	// 6. Create MCP server with initialize lifecycle logging
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		clientName := req.Params.ClientInfo.Name
		clientVersion := req.Params.ClientInfo.Version
		logger.Info().
			Str("client_name", clientName).
			Str("client_version", clientVersion).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("gooramcp", meta.Version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)

	oramcp.RegisterMCPTools(mcpServer, oraMcp)

	// 7. Serve on the configured transport
	switch serverConfig.Server.Transport {
	case "", "stdio":
		logger.Info().Msg("starting gooramcp server (stdio)")
		return server.ServeStdio(mcpServer)
	case "http":
		return serveHTTP(serverConfig, mcpServer, logger)
	default:
		return fmt.Errorf("unknown server.transport %q (supported: stdio, http)", serverConfig.Server.Transport)
	}
}

func serveHTTP(serverConfig *oramcp.ServerConfig, mcpServer *server.MCPServer, logger zerolog.Logger) error {
	if serverConfig.Server.Port <= 0 {
		panic("gooramcp: server.port must be > 0")
	}

	addr := fmt.Sprintf(":%d", serverConfig.Server.Port)
	mux := http.NewServeMux()

	// Health check endpoint (process liveness only, not DB connectivity)
	if serverConfig.Server.HealthCheckEnabled {
		if serverConfig.Server.HealthCheckPath == "" {
			panic("gooramcp: health_check_path must be set when health_check_enabled is true")
		}
		mux.HandleFunc(serverConfig.Server.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Create StreamableHTTPServer with custom http.Server
	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Manually register the MCP handler — Start() does NOT register
	// when a custom *http.Server is provided via WithStreamableHTTPServer.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", serverConfig.Server.Port).Msg("starting gooramcp server (http)")
	return streamableServer.Start(addr)
}

func loadServerConfig() (*oramcp.ServerConfig, error) {
	configPath := os.Getenv("GOORAMCP_CONFIG_PATH")
	if configPath == "" {
		configPath = ".gooramcp/config.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config oramcp.ServerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// resolveConnString assembles the go-ora connection string from the
// environment (DB_DSN, DB_USER, DB_PASSWORD), falling back to the
// config file's DSN and interactive prompts for missing credentials.
func resolveConnString(config *oramcp.ServerConfig) string {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = config.Connection.DSN
	}
	username := os.Getenv("DB_USER")
	if username == "" {
		username = promptInput("Username: ")
	}
	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		password = promptPassword("Password: ")
	}
	return buildConnString(dsn, username, password)
}

// buildConnString builds an oracle:// URL for the go-ora driver.
// Username and password are escaped so special characters survive URL parsing.
func buildConnString(dsn, username, password string) string {
	return fmt.Sprintf("oracle://%s:%s@%s",
		url.PathEscape(username), url.PathEscape(password), dsn)
}

func setupLogger(config oramcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptInput(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	var input string
	fmt.Scanln(&input)
	return input
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return ""
	}
	return string(password)
}

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/zx06/xkeychain/internal/config"
	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	mcp_pkg "github.com/zx06/xkeychain/internal/mcp"
	"github.com/zx06/xkeychain/internal/secret"
)

// NewMCPCommand creates the MCP command group
func NewMCPCommand() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP (Model Context Protocol) server commands",
	}
	mcpCmd.AddCommand(newMCPServerCommand())
	return mcpCmd
}

// newMCPServerCommand creates the MCP server command
func newMCPServerCommand() *cobra.Command {
	opts := &mcpServerOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start MCP server for AI assistant integration",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.transportSet = cmd.Flags().Changed("transport")
			opts.httpAddrSet = cmd.Flags().Changed("http-addr")
			opts.httpAuthTokenSet = cmd.Flags().Changed("http-auth-token")
			return runMCPServer(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.transport, "transport", mcp_pkg.TransportStdio, "MCP transport: stdio|streamable_http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", mcp_pkg.DefaultHTTPAddr, "Streamable HTTP listen address")
	cmd.Flags().StringVar(&opts.httpAuthToken, "http-auth-token", "", "Streamable HTTP auth token (required for streamable_http)")
	return cmd
}

// runMCPServer runs the MCP server until ctx ends or the transport closes.
func runMCPServer(ctx context.Context, opts *mcpServerOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kc, err := openKeychain()
	if err != nil {
		return err
	}
	env, xe := config.LoadEnv()
	if xe != nil {
		return xe
	}
	resolved, xe := resolveMCPServerOptions(opts, GlobalConfig.Resolved.MCP, env, kc)
	if xe != nil {
		return xe
	}

	server, err := mcp_pkg.CreateServer(version, kc, mcp_pkg.Options{AllowLoad: GlobalConfig.Resolved.MCP.AllowLoad})
	if err != nil {
		return errors.AsOrWrap(err)
	}
	logger().Info("mcp server starting", "transport", resolved.transport, "backend", kc.Backend().Name(), "allow_load", GlobalConfig.Resolved.MCP.AllowLoad)

	switch resolved.transport {
	case mcp_pkg.TransportStdio:
		return server.Run(ctx, &mcp.StdioTransport{})
	case mcp_pkg.TransportStreamableHTTP:
		handler, err := mcp_pkg.NewStreamableHTTPHandler(server, resolved.httpAuthToken)
		if err != nil {
			return errors.AsOrWrap(err)
		}
		httpServer := &http.Server{
			Addr:    resolved.httpAddr,
			Handler: handler,
		}
		go func() {
			<-ctx.Done()
			_ = httpServer.Shutdown(context.Background())
		}()
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.CodeInternal, "mcp http server failed", map[string]any{"addr": resolved.httpAddr}, err)
		}
		return nil
	default:
		return errors.New(errors.CodeCfgInvalid, "unsupported mcp transport", map[string]any{"transport": resolved.transport})
	}
}

type mcpServerOptions struct {
	transport        string
	transportSet     bool
	httpAddr         string
	httpAddrSet      bool
	httpAuthToken    string
	httpAuthTokenSet bool
}

type mcpServerResolved struct {
	transport     string
	httpAddr      string
	httpAuthToken string
}

// resolveMCPServerOptions merges CLI > ENV > config. A configured auth
// token may be a keychain: reference, read through kc.
func resolveMCPServerOptions(opts *mcpServerOptions, cfg config.MCP, env config.Env, kc *keychain.Keychain) (mcpServerResolved, *errors.XError) {
	if opts == nil {
		opts = &mcpServerOptions{}
	}

	transport := firstNonEmpty(
		valueIfSet(opts.transportSet, opts.transport),
		env.MCPTransport,
		cfg.Transport,
		mcp_pkg.TransportStdio,
	)
	if transport != mcp_pkg.TransportStdio && transport != mcp_pkg.TransportStreamableHTTP {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "invalid mcp transport", map[string]any{"transport": transport})
	}

	httpAddr := firstNonEmpty(
		valueIfSet(opts.httpAddrSet, opts.httpAddr),
		env.MCPHTTPAddr,
		cfg.HTTP.Addr,
		mcp_pkg.DefaultHTTPAddr,
	)

	authToken := firstNonEmpty(
		valueIfSet(opts.httpAuthTokenSet, opts.httpAuthToken),
		env.MCPHTTPAuthToken,
	)
	if authToken == "" && cfg.HTTP.AuthToken != "" {
		sopts := secret.Options{AllowPlaintext: cfg.HTTP.AllowPlaintextToken}
		if kc != nil {
			sopts.Loader = kc
		}
		v, xe := secret.Resolve(cfg.HTTP.AuthToken, sopts)
		if xe != nil {
			return mcpServerResolved{}, xe
		}
		authToken = v
	}

	if transport == mcp_pkg.TransportStreamableHTTP && authToken == "" {
		return mcpServerResolved{}, errors.New(errors.CodeCfgInvalid, "streamable http transport requires auth token", nil)
	}

	return mcpServerResolved{
		transport:     transport,
		httpAddr:      httpAddr,
		httpAuthToken: authToken,
	}, nil
}

func valueIfSet(set bool, value string) string {
	if !set {
		return ""
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rentdesk/rentdesk/internal/logging"
	"github.com/rentdesk/rentdesk/internal/rentd"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int

	pingAddr    string
	pingTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pingCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind host (default from server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (default from server.port)")

	pingCmd.Flags().StringVar(&pingAddr, "addr", "", "daemon address host:port (default from config)")
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 5*time.Second, "request timeout")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rentd gRPC daemon",
	Long:  "Serve template extraction, rendering and the template store over gRPC until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		daemon, err := rentd.New(GetConfig(), newContractService(database), logging.Component("rentd"), rentd.Options{
			Host:    serveHost,
			Port:    servePort,
			Version: Version,
		})
		if err != nil {
			return err
		}
		return daemon.Run(ctx)
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that a rentd daemon is serving",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := pingAddr
		if addr == "" {
			cfg := GetConfig()
			addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
		}

		client, err := rentd.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := contextWithTimeout(cmd, pingTimeout)
		defer cancel()

		resp, err := client.Ping(ctx)
		if err != nil {
			return &PreflightError{
				Message:  fmt.Sprintf("rentd at %s is not reachable: %v", addr, err),
				NextStep: "rentdesk serve",
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s rentd %s on %s (up %s)\n",
			colorize("OK", colorGreen), resp.Version, resp.Hostname, resp.Uptime)
		return nil
	},
}

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/approvalbroker/broker/internal/config"
)

func buildStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running broker's status over its local transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the broker's configuration file")

	return cmd
}

func runStatus(configPath string) error {
	resolvedPath := config.ResolveConfigPath(configPath)
	cfg, err := config.Load(resolvedPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	conn, err := net.Dial("unix", cfg.Transport.SocketPath)
	if err != nil {
		return fmt.Errorf("connect to broker socket: %w", err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, `{"action":"status"}`); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return fmt.Errorf("no response from broker")
	}

	var resp map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	for k, v := range resp {
		fmt.Printf("%s: %v\n", k, v)
	}
	return nil
}

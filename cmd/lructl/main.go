// lructl is a command line client for the LRU cache service.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/socialchef/lru/internal/client"
	"github.com/socialchef/lru/internal/httpclient"
	"github.com/socialchef/lru/internal/utils"
)

const (
	fstrAddr    = "addr"
	fstrTimeout = "timeout"
	fstrNoRetry = "no-retry"

	defaultAddr = "http://localhost:8080"
	envAddr     = "LRU_ADDR"
)

// rootEnv holds the flags shared by every subcommand.
type rootEnv struct {
	addr    string
	timeout time.Duration
	noRetry bool
}

func (r *rootEnv) client() *client.Client {
	retry := utils.DefaultRetryConfig()
	if r.noRetry {
		retry = utils.NoRetryConfig()
	}
	return client.New(r.addr,
		client.WithHTTPClient(httpclient.NewInstrumentedClient(r.timeout)),
		client.WithRetryConfig(retry),
	)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	env := &rootEnv{}
	cmd := &cobra.Command{
		Use:   "lructl",
		Short: "lructl talks to an LRU cache server.",
		Long: `
lructl sets, reads and deletes keys on a running cache server and reports its size.
The server address defaults to $` + envAddr + ` or ` + defaultAddr + `.`,
		SilenceUsage: true,
	}

	addr := os.Getenv(envAddr)
	if addr == "" {
		addr = defaultAddr
	}
	cmd.PersistentFlags().StringVar(&env.addr, fstrAddr, addr, "Base URL of the cache server")
	cmd.PersistentFlags().DurationVar(&env.timeout, fstrTimeout, httpclient.DefaultTimeout, "Timeout for a single request")
	cmd.PersistentFlags().BoolVar(&env.noRetry, fstrNoRetry, false, "Do not retry transient failures")

	cmd.AddCommand(
		getSetCmd(env),
		getGetCmd(env),
		getDeleteCmd(env),
		getStatsCmd(env),
	)
	return cmd
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("lructl: %v", err))
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zenjournal/zenjournal-backend/pkg/zenclient"
)

var (
	apiFlag       string
	tokenFileFlag string
	rootCmd       = &cobra.Command{
		Use:           "zenctl",
		Short:         "Command-line client for the ZenJournal API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func defaultAPI() string {
	if v := os.Getenv("ZENJOURNAL_API"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".zenjournal", "token")
	}
	return filepath.Join(home, ".zenjournal", "token")
}

// newClient builds an API client carrying the persisted session, if any.
func newClient() (*zenclient.Client, error) {
	token, err := loadToken(tokenFileFlag)
	if err != nil {
		return nil, err
	}
	var opts []zenclient.Option
	if token != "" {
		opts = append(opts, zenclient.WithToken(token))
	}
	return zenclient.New(apiFlag, opts...)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", defaultAPI(), "ZenJournal API base URL")
	rootCmd.PersistentFlags().StringVar(&tokenFileFlag, "token-file", defaultTokenFile(), "Where the session token is kept between runs")

	rootCmd.AddCommand(newRegisterCmd(), newLoginCmd(), newLogoutCmd(), newMeCmd())
	rootCmd.AddCommand(newEntriesCmd(), newWriteCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

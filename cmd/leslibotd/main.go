package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lesli-ai/leslibot/internal/cli"
	"github.com/lesli-ai/leslibot/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leslibotd",
		Short: "Lesli bot daemon and CLI",
		Long:  "Lesli bot daemon for running the Telegram bot and managing the book knowledge base",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.SearchCmd())
	rootCmd.AddCommand(admin.BooksCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command assistant is the terminal delivery channel: it answers questions,
// syncs outbreak reports and seeds the knowledge store from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Health information assistant",
	Long: `Answer health questions using the local knowledge base and WHO outbreak news.

Configuration is read from the environment (DATABASE_DRIVER, DATABASE_URL,
OPENAI_API_KEY, OPENAI_MODEL_CHAT, OUTBREAK_FEED_URL, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.AddCommand(askCmd, syncCmd, seedCmd, demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

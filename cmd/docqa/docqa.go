// Package docqacmder
package docqacmder

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/docqa/cmd/docqa/ask"
	authcmder "github.com/papercomputeco/docqa/cmd/docqa/auth"
	configcmder "github.com/papercomputeco/docqa/cmd/docqa/config"
	extractcmder "github.com/papercomputeco/docqa/cmd/docqa/extract"
	indexcmder "github.com/papercomputeco/docqa/cmd/docqa/index"
	initcmder "github.com/papercomputeco/docqa/cmd/docqa/init"
	searchcmder "github.com/papercomputeco/docqa/cmd/docqa/search"
	versioncmder "github.com/papercomputeco/docqa/cmd/version"
)

const docqaLongDesc string = `docqa answers questions about your documents.

Extract text from PDFs, Word files, web pages and scanned images, index it
in a vector store, and ask questions that are answered from the closest
passages.

Typical workflow:
  docqa init                 Create a .docqa/ directory with a config.toml
  docqa auth gemini          Store an API key
  docqa extract data/*       Write extracted_text.txt
  docqa ask                  Start asking questions

Environment variables from a .env file in the working directory are loaded
on startup.`

const docqaShortDesc string = "docqa - Question answering over documents"

func NewDocqaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "docqa",
		Short:        docqaShortDesc,
		Long:         docqaLongDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(".env")
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .docqa/ config directory")
	cmd.PersistentFlags().String("log-file", "", "Also append JSON debug logs to this file")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(extractcmder.NewExtractCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		slog.Debug("loaded environment file", "path", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

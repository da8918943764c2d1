// Package main is the entry point for the mdserve CLI.
//
// The application startup sequence:
//
// 1. Initialize logging system
// 2. Load configuration from disk (defaults when no config file exists)
// 3. Wire the path validator, caches and source accessor
// 4. Run the requested command: the MCP server over stdio, or a one-shot
//    content read for scripting and debugging
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"mdserve/internal/cache"
	"mdserve/internal/category"
	"mdserve/internal/config"
	"mdserve/internal/logging"
	"mdserve/internal/mcp"
	"mdserve/internal/source"
	"mdserve/pkg/fileops"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	appLogger := logging.NewAppLogger()

	root := &cobra.Command{
		Use:   "mdserve",
		Short: "Serve markdown guidance documents over MCP",
		Long: "mdserve exposes categorized markdown documents to MCP clients.\n" +
			"Categories map to directories under a configured docroot; every\n" +
			"local read is bounded by the docroot and remote documents are\n" +
			"served through a validating HTTP cache.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: XDG config dir)")

	root.AddCommand(serveCmd(appLogger))
	root.AddCommand(contentCmd(appLogger))
	root.AddCommand(fetchCmd(appLogger))
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		appLogger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads from the --config path when given, else the standard
// location.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// buildService wires the full service stack from a loaded config.
func buildService(cfg *config.Config, logger *logging.AppLogger) (*category.Service, error) {
	docroot, err := cfg.AbsoluteDocroot()
	if err != nil {
		return nil, err
	}

	validator, err := fileops.NewPathValidator([]string{docroot})
	if err != nil {
		return nil, fmt.Errorf("cannot establish docroot boundary: %w", err)
	}

	contentCache, err := cache.NewPersistentContentCache(config.CacheDir())
	if err != nil {
		logger.Warn("Content cache persistence unavailable, using memory only", "error", err)
		contentCache = cache.NewContentCache()
	}
	docCache := cache.NewDocumentCache()

	// A stored bearer token rides on every remote fetch as a default header.
	client := source.NewHTTPClient(0, source.NewCredentialManager().AuthHeaders())
	accessor := source.NewAccessorWithClient(validator, contentCache, client)
	return category.NewService(cfg, validator, docCache, contentCache, accessor), nil
}

func serveCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Info("Configuration loaded", "docroot", cfg.Docroot, "categories", len(cfg.Categories))

			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			server := mcp.NewServer(cfg, svc, logger)
			return server.Start()
		},
	}
}

func contentCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "content <category>",
		Short: "Print the combined content of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			result, err := svc.GetContent(context.Background(), args[0])
			if err != nil {
				return err
			}
			if len(result.MatchedFiles) == 0 {
				return fmt.Errorf("no files found matching patterns in category %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Content)
			return nil
		},
	}
}

func fetchCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <uri>",
		Short: "Fetch and print a single document by URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}

			content, err := svc.FetchDocument(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bearer token for remote document origins",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store a bearer token in the OS credential store",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Token: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}

			cm := source.NewCredentialManager()
			if err := cm.StoreHTTPToken(strings.TrimSpace(line)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := source.NewCredentialManager()
			if err := cm.DeleteHTTPToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token deleted")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a bearer token is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := source.NewCredentialManager()
			if cm.HasHTTPToken() {
				fmt.Fprintln(cmd.OutOrStdout(), "Token configured")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No token configured")
			}
			return nil
		},
	})

	return cmd
}

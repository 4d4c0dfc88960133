package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cexll/conduitsdk-go/pkg/app"
	"github.com/cexll/conduitsdk-go/pkg/config"
)

type cli struct {
	configPath string
	apiURL     string
	verbose    bool

	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "conduitctl",
		Short:         "Read and write a Conduit blogging backend from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "path to config file")
	root.PersistentFlags().StringVar(&c.apiURL, "api", "", "override the API base URL")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newArticlesCmd(c),
		newFeedCmd(c),
		newArticleCmd(c),
		newTagsCmd(c),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Console = true
	}

	c.app, err = app.New(ctx, cfg)
	if err != nil {
		return err
	}
	c.app.Start(ctx)
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".conduit", "config.yaml")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

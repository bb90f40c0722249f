package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/caolib/typora-themes-gallery/internal/artifact"
	"github.com/caolib/typora-themes-gallery/internal/config"
	"github.com/caolib/typora-themes-gallery/internal/gateway"
	"github.com/caolib/typora-themes-gallery/internal/usecase"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the theme index artifact",
	Long: `Fetches every theme descriptor from the source index repository, groups
descriptors by inferred source repository, enriches each group with live
GitHub statistics via batched GraphQL queries, and writes the consolidated
themes.json artifact. Requires GITHUB_TOKEN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			cfg.OutputPath = output
		}

		token := config.Token()
		if token == "" {
			return fmt.Errorf("environment variable %s is not set", config.TokenEnvVar)
		}

		// Inject dependencies and run the pipeline.
		githubGateway, err := gateway.NewGitHubGateway(token, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		builder := usecase.NewBuilder(githubGateway, cfg, logger)

		groups, err := builder.Build(ctx)
		if err != nil {
			return fmt.Errorf("failed to build theme index: %w", err)
		}

		if err := artifact.Write(cfg.OutputPath, groups); err != nil {
			return err
		}
		logger.Info("artifact written", "path", cfg.OutputPath, "groups", len(groups))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("output", "o", "", "Artifact path (overrides config)")
}

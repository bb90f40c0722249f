package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caolib/typora-themes-gallery/internal/artifact"
	"github.com/caolib/typora-themes-gallery/internal/config"
	"github.com/caolib/typora-themes-gallery/internal/domain"
	"github.com/caolib/typora-themes-gallery/internal/gateway"
	"github.com/caolib/typora-themes-gallery/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats [owner/name ...]",
	Short: "Refreshes repository stats and outputs them as JSON",
	Long: `Looks up live stats for the given repositories, or for every
stats-eligible group of an existing artifact when --artifact is set,
writing the refreshed artifact back in place. Lookups run in small
concurrent batches with a courtesy delay; rate-limited outcomes are
retried once when a GITHUB_TOKEN is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		token := config.Token()
		if token == "" {
			// Without a credential a retry would hit the same quota wall.
			cfg.RefreshMaxAttempts = 1
			logger.Warn("no GITHUB_TOKEN set, using the unauthenticated quota without retries")
		}

		githubGateway, err := gateway.NewGitHubGateway(token, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		builder := usecase.NewBuilder(githubGateway, cfg, logger)

		artifactPath, _ := cmd.Flags().GetString("artifact")
		if artifactPath != "" {
			return refreshArtifact(cmd, builder, artifactPath)
		}
		if len(args) == 0 {
			return fmt.Errorf("pass owner/name arguments or --artifact")
		}

		refs := make([]domain.RepoRef, 0, len(args))
		for _, arg := range args {
			owner, name, found := strings.Cut(arg, "/")
			if !found || owner == "" || name == "" {
				return fmt.Errorf("invalid repository %q, expected owner/name", arg)
			}
			refs = append(refs, domain.RepoRef{Owner: owner, Name: name})
		}

		results := builder.RefreshStats(ctx, refs)
		out := make(map[string]*domain.Stats, len(refs))
		for i, ref := range refs {
			out[ref.Key()] = results[i]
		}
		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

// refreshArtifact re-queries every stats-eligible group of an existing
// artifact and writes the result back atomically.
func refreshArtifact(cmd *cobra.Command, builder *usecase.Builder, path string) error {
	groups, err := artifact.Read(path)
	if err != nil {
		return err
	}

	var eligible []*domain.Group
	var refs []domain.RepoRef
	for _, g := range groups {
		if g.StatsEligible() {
			eligible = append(eligible, g)
			refs = append(refs, domain.RepoRef{Owner: g.RepoOwner, Name: g.RepoName})
		}
	}

	results := builder.RefreshStats(cmd.Context(), refs)
	for i, g := range eligible {
		if results[i] != nil {
			g.Stats = results[i]
		}
	}

	if err := artifact.Write(path, groups); err != nil {
		return err
	}
	slog.Default().Info("artifact refreshed", "path", path, "groups", len(eligible))
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("artifact", "", "Refresh every stats-eligible group of this artifact in place")
}

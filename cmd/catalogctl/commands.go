package main

import (
	"fmt"
	"os"
	"time"

	"github.com/JonMunkholm/brickshop/internal/catalogtool"
	"github.com/JonMunkholm/brickshop/internal/logging"
	"github.com/spf13/cobra"
)

// DefaultPlaceholder replaces images that failed the image check.
const DefaultPlaceholder = "https://via.placeholder.com/420x320?text=No+Image+Available"

// NewRootCommand creates the catalogctl command tree.
func NewRootCommand() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Build and maintain products.json",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		NewBuildCommand(),
		NewEnrichCommand(),
		NewRefreshCacheCommand(),
		NewCheckImagesCommand(),
		NewPlaceholdersCommand(),
	)
	return cmd
}

// NewBuildCommand creates the build subcommand.
func NewBuildCommand() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Aggregate a stock spreadsheet into products.json",
		Example: `  catalogctl build --in stock.xlsx
  catalogctl build --in stock.csv --out public/products.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()

			products, stats, err := catalogtool.Build(in, f)
			if err != nil {
				return err
			}
			if err := catalogtool.Rewrite(out, products); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d products to %s (%d rows, %d duplicates, %d skipped)\n",
				stats.Unique, out, stats.Rows, stats.Duplicates, stats.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Stock spreadsheet (.csv or .xlsx)")
	cmd.Flags().StringVar(&out, "out", catalogtool.ProductsFile, "Output products file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// NewEnrichCommand creates the enrich subcommand.
func NewEnrichCommand() *cobra.Command {
	var productsPath, cachePath string
	var write bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Apply cached Rebrickable names and images to products",
		Example: `  catalogctl enrich            # Report what would change
  catalogctl enrich --write    # Rewrite products.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := catalogtool.ReadProducts(productsPath)
			if err != nil {
				return err
			}
			cache, err := catalogtool.ReadCache(cachePath)
			if err != nil {
				return err
			}

			stats := catalogtool.EnrichProducts(products, cache)
			fmt.Fprintf(cmd.OutOrStdout(), "%d images and %d titles updated\n", stats.Images, stats.Titles)
			if !write {
				return nil
			}
			return catalogtool.Rewrite(productsPath, products)
		},
	}

	cmd.Flags().StringVar(&productsPath, "products", catalogtool.ProductsFile, "Products file")
	cmd.Flags().StringVar(&cachePath, "cache", catalogtool.CacheFile, "Rebrickable lookup cache")
	cmd.Flags().BoolVar(&write, "write", false, "Rewrite the products file")
	return cmd
}

// NewRefreshCacheCommand creates the refresh-cache subcommand.
func NewRefreshCacheCommand() *cobra.Command {
	var (
		productsPath   string
		cachePath      string
		apiKey         string
		apiBase        string
		delay          time.Duration
		force          bool
		updateProducts bool
	)

	cmd := &cobra.Command{
		Use:   "refresh-cache",
		Short: "Look up product ids on Rebrickable and update the cache",
		Example: `  catalogctl refresh-cache
  catalogctl refresh-cache --force --update-products`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				apiKey = os.Getenv("REBRICKABLE_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("no API key: set --api-key or REBRICKABLE_API_KEY")
			}

			products, err := catalogtool.ReadProducts(productsPath)
			if err != nil {
				return err
			}
			cache, err := catalogtool.ReadCache(cachePath)
			if err != nil {
				return err
			}

			client := catalogtool.NewRebrickable(apiKey, delay)
			client.BaseURL = apiBase

			// Partial results are saved even when interrupted.
			stats, refreshErr := catalogtool.RefreshCache(cmd.Context(), client, catalogtool.UniqueIDs(products), cache, force)
			if err := catalogtool.Rewrite(cachePath, cache); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Looked up %d sets: %d found, %d missed, %d failed, %d already cached\n",
				stats.Looked, stats.Found, stats.Missed, stats.Failed, stats.Cached)
			if refreshErr != nil {
				return refreshErr
			}

			if !updateProducts {
				return nil
			}
			es := catalogtool.EnrichProducts(products, cache)
			fmt.Fprintf(cmd.OutOrStdout(), "%d images and %d titles updated\n", es.Images, es.Titles)
			return catalogtool.Rewrite(productsPath, products)
		},
	}

	cmd.Flags().StringVar(&productsPath, "products", catalogtool.ProductsFile, "Products file")
	cmd.Flags().StringVar(&cachePath, "cache", catalogtool.CacheFile, "Rebrickable lookup cache")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Rebrickable API key (default $REBRICKABLE_API_KEY)")
	cmd.Flags().StringVar(&apiBase, "api-base", catalogtool.DefaultAPIBase, "Rebrickable API base URL")
	cmd.Flags().DurationVar(&delay, "delay", catalogtool.DefaultDelay, "Minimum spacing between API calls")
	cmd.Flags().BoolVar(&force, "force", false, "Look up ids that are already cached")
	cmd.Flags().BoolVar(&updateProducts, "update-products", false, "Apply the refreshed cache to the products file")
	_ = cmd.Flags().MarkHidden("api-base")
	return cmd
}

// NewCheckImagesCommand creates the check-images subcommand.
func NewCheckImagesCommand() *cobra.Command {
	var productsPath, reportPath string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "check-images",
		Short: "Verify every product image URL and write a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := catalogtool.ReadProducts(productsPath)
			if err != nil {
				return err
			}

			report, err := catalogtool.NewImageChecker(concurrency).Check(cmd.Context(), products)
			if err != nil {
				return err
			}
			if err := catalogtool.WriteJSON(reportPath, report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d/%d images OK, %d failed (report: %s)\n",
				report.OK, report.Total, len(report.Failures), reportPath)
			for _, f := range report.Failures {
				fmt.Fprintf(out, "  %s\t%s\t%s\n", f.ID, f.Reason, f.ImageURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&productsPath, "products", catalogtool.ProductsFile, "Products file")
	cmd.Flags().StringVar(&reportPath, "report", catalogtool.ReportFile, "Report output")
	cmd.Flags().IntVar(&concurrency, "concurrency", catalogtool.DefaultCheckConcurrency, "Parallel checks")
	return cmd
}

// NewPlaceholdersCommand creates the placeholders subcommand.
func NewPlaceholdersCommand() *cobra.Command {
	var productsPath, reportPath, url string

	cmd := &cobra.Command{
		Use:   "placeholders",
		Short: "Replace images listed in the image report with a placeholder",
		Example: `  catalogctl check-images && catalogctl placeholders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := catalogtool.ReadReport(reportPath)
			if err != nil {
				return err
			}
			products, err := catalogtool.ReadProducts(productsPath)
			if err != nil {
				return err
			}

			changed := catalogtool.ApplyPlaceholders(products, report, url)
			fmt.Fprintf(cmd.OutOrStdout(), "%d images replaced\n", changed)
			if changed == 0 {
				return nil
			}
			return catalogtool.Rewrite(productsPath, products)
		},
	}

	cmd.Flags().StringVar(&productsPath, "products", catalogtool.ProductsFile, "Products file")
	cmd.Flags().StringVar(&reportPath, "report", catalogtool.ReportFile, "Image check report")
	cmd.Flags().StringVar(&url, "url", DefaultPlaceholder, "Placeholder image URL")
	return cmd
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"equipflow/sei/internal/autopilot"
	"equipflow/sei/internal/failure"
)

var (
	processVolume int
	processKD     int
	publishLive   bool
)

var processCmd = &cobra.Command{
	Use:   "process <keyword>",
	Short: "Run one keyword through classify, decide, generate, image, links and publish",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		kw := autopilot.Keyword{Keyword: strings.Join(args, " "), Volume: processVolume, KD: processKD}
		res, fatal := a.runner().ProcessKeyword(cmd.Context(), kw)
		report := struct {
			*autopilot.KeywordResult
			Costs any `json:"costs"`
		}{res, a.sess.Budget.Report()}

		if jsonOutput {
			if err := printJSON(report); err != nil {
				return err
			}
		} else {
			fmt.Printf("\n  %s\n", res.Keyword)
			fmt.Printf("  pages created: %d  content: %d  blocked: %d  images: %d  links: %d  published: %d\n",
				res.PagesCreated, res.ContentGenerated, res.Blocked, res.ImagesGenerated, res.LinksGenerated, res.Published)
			for _, u := range res.PublishedURLs {
				fmt.Printf("    + %s\n", u)
			}
			for _, e := range res.Errors {
				fmt.Printf("    ! %s\n", e)
			}
			printCosts(a.sess.Budget.Report())
		}
		return fatal
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster <equipment>",
	Short: "Create the hub and default spokes of an equipment type",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		et, _, err := a.db.GetOrCreateEquipmentType(strings.Join(args, " "))
		if err != nil {
			return err
		}
		res, err := a.decider().Clusters().BuildCluster(et)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{
				"equipment_type": et,
				"hub_id":         res.Hub.ID,
				"pages_created":  res.PagesCreated,
				"created_ids":    res.CreatedIDs,
			})
		}
		fmt.Printf("  %s: hub %s, %d page(s) created\n", et.Name, truncID(res.Hub.ID), res.PagesCreated)
		for _, id := range res.CreatedIDs {
			fmt.Printf("    + %s\n", id)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <node>",
	Short: "Generate content for a page and run the quality gates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		node, err := ResolveNode(a.db, args[0])
		if err != nil {
			return err
		}
		res, err := a.pipeline().Generate(cmd.Context(), node.ID)
		var gate *failure.QualityGateFailure
		if err != nil && !errors.As(err, &gate) {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		status := "ready to publish"
		if !res.GatePassed {
			status = "blocked: " + strings.Join(res.Gate.Reasons, "; ")
		}
		fmt.Printf("  %s v%d, %d words, %d sources, %s\n",
			node.URLSlug, res.ContentVersion, res.WordCount, len(res.Sources), status)
		if res.SERPChanged {
			fmt.Printf("  SERP changed, %d expansion keyword(s) queued\n", res.OpportunitiesQueued)
		}
		return nil
	},
}

var imageCmd = &cobra.Command{
	Use:   "image <node>",
	Short: "Generate and attach a hero image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), args[0], func(ctx context.Context, a *app, id string) (any, error) {
			return a.attacher().Attach(ctx, id)
		})
	},
}

var linksCmd = &cobra.Command{
	Use:   "links <node>",
	Short: "Inject internal links and the related-resources block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), args[0], func(_ context.Context, a *app, id string) (any, error) {
			return a.linker().Generate(id)
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <node>",
	Short: "Publish a page to the CMS and ping IndexNow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), args[0], func(ctx context.Context, a *app, id string) (any, error) {
			res, err := a.publisher().Publish(ctx, id)
			if err != nil || !publishLive || res.ItemID == "" {
				return res, err
			}
			if err := a.webflow().PublishLive(ctx, []string{res.ItemID}); err != nil {
				return res, fmt.Errorf("publishing item live: %w", err)
			}
			return res, nil
		})
	},
}

// withNode resolves ref, runs fn and prints its result.
func withNode(ctx context.Context, ref string, fn func(context.Context, *app, string) (any, error)) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	node, err := ResolveNode(a.db, ref)
	if err != nil {
		return err
	}
	res, err := fn(ctx, a, node.ID)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func init() {
	processCmd.Flags().IntVar(&processVolume, "volume", 0, "Monthly search volume of the keyword")
	processCmd.Flags().IntVar(&processKD, "kd", 0, "Keyword difficulty")
	publishCmd.Flags().BoolVar(&publishLive, "live", false, "Also publish the staged item to the live site")
	rootCmd.AddCommand(processCmd, clusterCmd, generateCmd, imageCmd, linksCmd, publishCmd)
}

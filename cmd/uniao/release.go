package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Manage age-based release conditions",
	}

	cmd.AddCommand(
		newReleaseSetCmd(),
		newReleaseClearCmd(),
		newReleaseStatusCmd(),
	)

	return cmd
}

func newReleaseSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set ASSET_ID AGE",
		Short: "Release an earmarked asset when its member reaches AGE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				asset, err := d.Releases.HandleSet(ctx, d.Session, args[0], args[1])
				if err != nil {
					return fmt.Errorf("setting release condition: %w", err)
				}
				if asset.ReleaseCondition == nil {
					fmt.Printf("Cleared the release condition of %s\n", asset.Name)
					return nil
				}
				fmt.Printf("%s will be released at age %d\n", asset.Name, asset.ReleaseCondition.TargetAge)
				return nil
			})
		},
	}
}

func newReleaseClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear ASSET_ID",
		Short: "Remove an asset's release condition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				asset, err := d.Releases.HandleClear(ctx, d.Session, args[0])
				if err != nil {
					return fmt.Errorf("clearing release condition: %w", err)
				}
				fmt.Printf("Cleared the release condition of %s\n", asset.Name)
				return nil
			})
		},
	}
}

func newReleaseStatusCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "status [ASSET_ID]",
		Short: "Show release conditions and how far off they are",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID := ""
			if len(args) == 1 {
				assetID = args[0]
			}
			return runReleaseStatus(cmd, assetID, asOf)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Date conditions are evaluated on (default: today)")

	return cmd
}

func runReleaseStatus(cmd *cobra.Command, assetID, asOfFlag string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		views, err := d.Releases.HandleStatus(ctx, d.Session, assetID, asOf)
		if err != nil {
			return fmt.Errorf("evaluating release conditions: %w", err)
		}

		if len(views) == 0 {
			fmt.Println("No release conditions set.")
			return nil
		}

		fmt.Printf("%-36s  %-24s  %-16s  %s\n", "ASSET", "NAME", "FOR", "STATUS")
		for _, v := range views {
			name, member := v.AssetName, v.MemberName
			if name == "" {
				name = "-"
			}
			if member == "" {
				member = "-"
			}
			fmt.Printf("%-36s  %-24s  %-16s  %s\n",
				v.AssetID, truncate(name, 24), truncate(member, 16), formatRelease(v.Status))
		}
		return nil
	})
}

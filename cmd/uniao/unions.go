package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/application/handlers"
)

type createUnionFlags struct {
	partners    []string
	description string
}

func newInitCmd() *cobra.Command {
	var flags createUnionFlags
	var profile string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize uniao with a first union",
		Long:  "Creates a .uniao directory with default configuration and a union profile backed by its own database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUnion(cmd, profile, flags)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", DefaultProfile, "Profile name")
	addCreateUnionFlags(cmd, &flags)

	return cmd
}

func newUnionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unions",
		Short: "Manage union profiles",
		RunE:  runUnionsList,
	}

	cmd.AddCommand(
		newUnionsListCmd(),
		newUnionsCreateCmd(),
		newUnionsDeleteCmd(),
		newUnionsRenameCmd(),
	)

	return cmd
}

func newUnionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all union profiles",
		RunE:  runUnionsList,
	}
}

func runUnionsList(cmd *cobra.Command, args []string) error {
	return withUnionsHandler(func(handler *handlers.UnionsHandler) error {
		profiles, err := handler.HandleList()
		if err != nil {
			return err
		}

		if len(profiles) == 0 {
			fmt.Println("No unions configured.")
			fmt.Println("Use 'uniao init --partner NAME' to create one.")
			return nil
		}

		fmt.Printf("%-20s %-38s %s\n", "NAME", "UNION ID", "DESCRIPTION")
		fmt.Printf("%-20s %-38s %s\n", "----", "--------", "-----------")

		for _, p := range profiles {
			fmt.Printf("%-20s %-38s %s\n", p.Name, p.UnionID, p.Description)
		}

		return nil
	})
}

func newUnionsCreateCmd() *cobra.Command {
	var flags createUnionFlags

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new union profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUnion(cmd, args[0], flags)
		},
	}

	addCreateUnionFlags(cmd, &flags)

	return cmd
}

func addCreateUnionFlags(cmd *cobra.Command, flags *createUnionFlags) {
	cmd.Flags().StringArrayVar(&flags.partners, "partner", nil, "Partner name (repeat for the second partner)")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Profile description")
	_ = cmd.MarkFlagRequired("partner")
}

func runCreateUnion(cmd *cobra.Command, profile string, flags createUnionFlags) error {
	ctx := cmd.Context()

	return withUnionsHandler(func(handler *handlers.UnionsHandler) error {
		result, err := handler.HandleCreate(ctx, handlers.CreateUnionOptions{
			Profile:     profile,
			Partners:    flags.partners,
			Description: flags.description,
		})
		if err != nil {
			return err
		}

		if result.ConfigCreated {
			fmt.Printf("Created %s\n", result.ConfigPath)
		}
		fmt.Printf("Created union %q (%s) as profile %q\n", result.DisplayName, result.UnionID, result.Profile)
		fmt.Printf("Database: %s\n", result.DatabasePath)
		fmt.Printf("Use --union %s (or %s=%s) to work with it.\n", result.Profile, EnvUnion, result.Profile)

		return nil
	})
}

func newUnionsDeleteCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a union profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnionsDelete(args[0], purge)
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the profile's database")

	return cmd
}

func runUnionsDelete(name string, purge bool) error {
	return withUnionsHandler(func(handler *handlers.UnionsHandler) error {
		if err := handler.HandleDelete(name, purge); err != nil {
			return err
		}

		fmt.Printf("Deleted union profile %q\n", name)
		if !purge {
			fmt.Println("The database was kept; use --purge to remove it.")
		}

		return nil
	})
}

func newUnionsRenameCmd() *cobra.Command {
	var partners []string

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Change the partner names of the selected union",
		Long:  "Changes the partner names of the union selected with --union. Recorded contributions keep the names they were committed with.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				union, err := d.Settings.HandleRename(ctx, d.Session, partners)
				if err != nil {
					return fmt.Errorf("renaming union: %w", err)
				}
				fmt.Printf("Union is now %q\n", union.DisplayName)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&partners, "partner", nil, "Partner name (repeat for the second partner)")
	_ = cmd.MarkFlagRequired("partner")

	return cmd
}

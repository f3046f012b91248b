package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/application/handlers"
	"github.com/ersonp/uniao/internal/domain/entities"
)

type memberFlags struct {
	name          string
	relationship  string
	birthDate     string
	walletAddress string
}

func newMembersCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member"},
		Short:   "Manage the people associated with a union",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembersList(cmd, asOf)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Date ages are computed on (default: today)")

	cmd.AddCommand(
		newMembersListCmd(),
		newMembersAddCmd(),
		newMembersEditCmd(),
	)

	return cmd
}

func newMembersListCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members with their ages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembersList(cmd, asOf)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Date ages are computed on (default: today)")

	return cmd
}

func runMembersList(cmd *cobra.Command, asOf string) error {
	date, err := parseAsOf(asOf)
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		views, err := d.Members.HandleList(cmd.Context(), d.Session, date)
		if err != nil {
			return fmt.Errorf("listing members: %w", err)
		}

		if len(views) == 0 {
			fmt.Println("No members yet. Use 'uniao members add' to add one.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-10s  %-10s  %s\n", "ID", "NAME", "RELATION", "BORN", "AGE")
		for _, v := range views {
			born, age := "-", "-"
			if v.Member.HasBirthDate() {
				born = v.Member.BirthDate.Format(time.DateOnly)
			}
			if v.Age != nil {
				age = strconv.Itoa(*v.Age)
			}
			fmt.Printf("%-36s  %-20s  %-10s  %-10s  %s\n",
				v.Member.ID, truncate(v.Member.Name, 20), v.Member.Relationship, born, age)
		}

		return nil
	})
}

func newMembersAddCmd() *cobra.Command {
	var flags memberFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembersAdd(cmd, flags)
		},
	}

	addMemberFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func addMemberFlags(cmd *cobra.Command, flags *memberFlags) {
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Member name")
	cmd.Flags().StringVarP(&flags.relationship, "relationship", "r", "", "Relationship (child, parent, partner, relative, associate, other)")
	cmd.Flags().StringVarP(&flags.birthDate, "birth-date", "b", "", "Birth date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.walletAddress, "wallet", "w", "", "Wallet address")
}

func runMembersAdd(cmd *cobra.Command, flags memberFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		member, err := d.Members.HandleCreate(ctx, d.Session, handlers.MemberInput{
			Name:          flags.name,
			Relationship:  flags.relationship,
			BirthDate:     flags.birthDate,
			WalletAddress: flags.walletAddress,
		})
		if err != nil {
			return fmt.Errorf("adding member: %w", err)
		}

		fmt.Printf("Added %s (%s) with ID %s\n", member.Name, member.Relationship, member.ID)
		return nil
	})
}

func newMembersEditCmd() *cobra.Command {
	var flags memberFlags

	cmd := &cobra.Command{
		Use:   "edit MEMBER_ID",
		Short: "Change a member's details",
		Long:  "Changes only the flags given. Pass --birth-date \"\" to remove a birth date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembersEdit(cmd, args[0], flags)
		},
	}

	addMemberFlags(cmd, &flags)

	return cmd
}

func runMembersEdit(cmd *cobra.Command, memberID string, flags memberFlags) error {
	patch := handlers.MemberPatch{
		Name:          changed(cmd, "name", flags.name),
		Relationship:  changed(cmd, "relationship", flags.relationship),
		BirthDate:     changed(cmd, "birth-date", flags.birthDate),
		WalletAddress: changed(cmd, "wallet", flags.walletAddress),
	}
	if patch == (handlers.MemberPatch{}) {
		return fmt.Errorf("nothing to change (use --name, --relationship, --birth-date or --wallet)")
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		member, err := d.Members.HandleUpdate(ctx, d.Session, memberID, patch)
		if err != nil {
			return fmt.Errorf("editing member: %w", err)
		}

		fmt.Printf("Updated %s\n", describeMember(member))
		return nil
	})
}

func describeMember(m *entities.Member) string {
	if m.HasBirthDate() {
		return fmt.Sprintf("%s (%s, born %s)", m.Name, m.Relationship, m.BirthDate.Format(time.DateOnly))
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.Relationship)
}

// changed returns a pointer to value when the flag was set on the command line.
func changed(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

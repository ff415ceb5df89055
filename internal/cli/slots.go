package cli

import (
	"github.com/spf13/cobra"
)

func newSlotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Cloud save slot commands",
	}

	cmd.AddCommand(newSlotsListCmd())
	cmd.AddCommand(newSlotsDeleteCmd())

	return cmd
}

func newSlotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the account's save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			metas, err := b.Platform.ListSlots(cmd.Context())
			if err != nil {
				return err
			}

			result := SlotsResult{Slots: make([]SlotResult, len(metas))}
			for i, m := range metas {
				result.Slots[i] = SlotResult{
					Name:         m.Name,
					Version:      m.Version,
					Description:  m.Description,
					PlayedTime:   m.PlayedTime.String(),
					LastModified: m.LastModified,
					Conflicted:   m.Conflicted,
				}
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSlotsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			if err := b.Platform.DeleteSlot(cmd.Context(), args[0]); err != nil {
				return err
			}

			output(cmd).PrintMessage("Slot " + args[0] + " deleted")
			return nil
		},
	}
}

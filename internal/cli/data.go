package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/savebridge/internal/factory"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/services/savemanager"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load player data from the cloud slot (or the local default record when signed out)",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			loadErr := b.Manager.LoadData(cmd.Context())
			output(cmd).Print(stateResult(b))
			return loadErr
		},
	}
}

func newSaveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the local player data to the cloud slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			err = b.Manager.ResumeExisting(cmd.Context())
			if errors.Is(err, model.ErrNoPlayerData) {
				// Committing a fresh zero record would replace the account's cloud progress
				if b.Platform.LocalUser().Authenticated && !force {
					return errors.New("no player data on this device for the signed-in account: run `savebridge load` first, or pass --force to overwrite the cloud slot")
				}
				err = b.Manager.Resume(cmd.Context())
			}
			if err != nil {
				return err
			}

			saveErr := b.Manager.SaveData(cmd.Context())
			output(cmd).Print(stateResult(b))
			return saveErr
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Save even when no player data was loaded for this account")

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the local player data",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			if err := b.Manager.Resume(cmd.Context()); err != nil {
				return err
			}
			output(cmd).Print(stateResult(b))
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Increment a counter in the local player data",
	}

	cmd.AddCommand(newAddCounterCmd("gold", "Add gold", (*savemanager.Manager).AddGold))
	cmd.AddCommand(newAddCounterCmd("hearts", "Add hearts", (*savemanager.Manager).AddHearts))

	return cmd
}

func newAddCounterCmd(use, short string, add func(*savemanager.Manager, context.Context) error) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			b, err := getBridge(cmd)
			if err != nil {
				return err
			}

			if err := b.Manager.Resume(cmd.Context()); err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				if err := add(b.Manager, cmd.Context()); err != nil {
					return err
				}
			}

			output(cmd).Print(stateResult(b))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "How many to add")

	return cmd
}

func stateResult(b *factory.Client) StateResult {
	status, level := display.StatusText()
	result := StateResult{
		Status:   status,
		Level:    level.String(),
		SignedIn: b.Platform.LocalUser().Authenticated,
		Gold:     display.GoldText(),
		Hearts:   display.HeartText(),
	}
	if data := b.Manager.PlayerData(); data != nil {
		result.PlayerID = data.ID
	}
	return result
}

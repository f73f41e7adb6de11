package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [default|light]",
		Short: "Show or set the viewer theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 0 {
				name, themeErr := store.Theme(cmd.Context())
				if themeErr != nil {
					return themeErr
				}
				if name == "" {
					name = "default"
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			}

			name := args[0]
			if name != "default" && name != "light" {
				return fmt.Errorf("unknown theme: %s", name)
			}
			if err := store.SaveTheme(cmd.Context(), name); err != nil {
				return err
			}

			slog.Info("Theme updated", "theme", name)
			return nil
		},
	}
}

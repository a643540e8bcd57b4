package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear the persisted outcome history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closers, err := newHistoryStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer (&app{closers: closers}).Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(store.Snapshot())
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the persisted history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closers, err := newHistoryStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer (&app{closers: closers}).Close()

		if _, err := store.Reset(cmd.Context()); err != nil {
			return err
		}
		appLog.WithField("backend", store.BackendName()).Info("History cleared")
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd, historyResetCmd)
}

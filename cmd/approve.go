package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// approveCmd seeds the official allowlist. Numbers must match the profile's
// stored phone number exactly; no normalization is applied.
var approveCmd = &cobra.Command{
	Use:   "approve <phone-number>...",
	Short: "Add phone numbers to the approved-official allowlist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		added, err := st.ApproveOfficials(ctx, args)
		if err != nil {
			return err
		}
		zap.L().Info("allowlist updated",
			zap.Int("requested", len(args)),
			zap.Int64("added", added),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
}

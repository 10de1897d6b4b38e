package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"pulseaid/internal/attestor"
	"pulseaid/internal/institution/models"
	"pulseaid/pkg/domain"
)

// newSignClaimCommand signs an identity claim with an attestor key. It exists for local
// development and for attestors that do not run their own signing service.
func newSignClaimCommand(opts *rootOptions) *cobra.Command {
	var (
		keyHex    string
		subject   string
		statement string
		validFor  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sign-claim",
		Short: "Sign an institution identity claim with an attestor key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.HexToECDSA(keyHex)
			if err != nil {
				return fmt.Errorf("parse attestor key: %w", err)
			}
			addr, err := domain.ParseAddress(subject)
			if err != nil {
				return err
			}

			now := time.Now().UTC().Truncate(time.Second)
			claim := models.Claim{
				Subject:   addr,
				Statement: statement,
				IssuedAt:  now,
			}
			if validFor > 0 {
				claim.ExpiresAt = now.Add(validFor)
			}
			if err := attestor.SignClaim(&claim, key); err != nil {
				return err
			}

			opts.logger.Debug("claim signed",
				"attestor", crypto.PubkeyToAddress(key.PublicKey).Hex(),
				"subject", addr.Hex(),
			)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claim)
		},
	}

	cmd.Flags().StringVar(&keyHex, "key", "", "attestor private key, hex without 0x")
	cmd.Flags().StringVar(&subject, "subject", "", "institution address the claim is about")
	cmd.Flags().StringVar(&statement, "statement", "", "attested statement")
	cmd.Flags().DurationVar(&validFor, "valid-for", 30*24*time.Hour, "claim lifetime; 0 for no expiry")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("statement")
	return cmd
}

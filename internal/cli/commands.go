package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pinauth/pin-relay/internal/relay"
)

func newSessionIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-id",
		Short: "Print a session ID for the current second",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), relay.GenerateSessionID())
			return nil
		},
	}
}

func newVerifyCmd(flags *remoteFlags) *cobra.Command {
	var (
		front, back, angled string
		sessionID           string
		timeout             time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Upload pin photos and print the normalized result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(flags)
			if err != nil {
				return err
			}

			images := relay.Images{}
			for _, img := range []struct {
				path string
				dst  *string
			}{
				{front, &images.Front},
				{back, &images.Back},
				{angled, &images.Angled},
			} {
				if img.path == "" {
					continue
				}
				data, err := os.ReadFile(img.path)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				*img.dst = base64.StdEncoding.EncodeToString(data)
			}

			if sessionID == "" {
				sessionID = relay.GenerateSessionID()
			}

			result, err := client.Upload(cmd.Context(), sessionID, images, timeout)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "front photo file (required)")
	cmd.Flags().StringVar(&back, "back", "", "back photo file")
	cmd.Flags().StringVar(&angled, "angled", "", "angled photo file")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "12-digit session ID (default: generated)")
	cmd.Flags().DurationVar(&timeout, "timeout", relay.DefaultUploadTimeout, "upload timeout")
	_ = cmd.MarkFlagRequired("front")

	return cmd
}

func newHealthCmd(flags *remoteFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Ping the authentication service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(flags)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := client.Ping(cmd.Context(), timeout); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s (%dms)\n", flags.masterURL, time.Since(start).Milliseconds())
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", relay.DefaultHealthTimeout, "health check timeout")
	return cmd
}

func newClient(flags *remoteFlags) (*relay.Client, error) {
	if flags.masterURL == "" {
		return nil, fmt.Errorf("master URL is required: set --master-url or MASTER_API_URL")
	}
	return relay.NewClient(flags.masterURL, flags.apiKey, relay.WithUploadPath(flags.uploadPath)), nil
}

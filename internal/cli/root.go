package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type remoteFlags struct {
	masterURL  string
	apiKey     string
	uploadPath string
}

func (f *remoteFlags) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.masterURL, "master-url", "", "authentication service base URL (default $MASTER_API_URL)")
	cmd.PersistentFlags().StringVar(&f.apiKey, "api-key", "", "authentication service API key (default $MASTER_API_KEY)")
	cmd.PersistentFlags().StringVar(&f.uploadPath, "upload-path", "", "upload path on the service (default $MASTER_UPLOAD_PATH or /mobile-upload)")
}

func (f *remoteFlags) resolve() {
	if f.masterURL == "" {
		f.masterURL = os.Getenv("MASTER_API_URL")
	}
	if f.apiKey == "" {
		f.apiKey = os.Getenv("MASTER_API_KEY")
	}
	if f.uploadPath == "" {
		f.uploadPath = os.Getenv("MASTER_UPLOAD_PATH")
	}
}

func NewRootCmd() *cobra.Command {
	flags := &remoteFlags{}

	cmd := &cobra.Command{
		Use:   "pinctl",
		Short: "Operator tool for the pin authentication relay",
		Long: `pinctl talks to the remote pin authentication service the same way the
relay server does. Use it to check connectivity or push a capture session by hand.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			flags.resolve()
		},
	}
	flags.bind(cmd)

	cmd.AddCommand(newSessionIDCmd())
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newHealthCmd(flags))

	return cmd
}

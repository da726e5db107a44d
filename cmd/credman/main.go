// Command credman retrieves a single credential from a configured secret
// backend and prints it to stdout, for use in scripts and shell pipelines.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/grimoirelab/credman"
	"github.com/grimoirelab/credman/awsutil"
	"github.com/grimoirelab/credman/bitwarden"
	"github.com/grimoirelab/credman/factory"
	"github.com/grimoirelab/credman/hcvault"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/send"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:           "credman <backend> <service> <credential>",
		Short:         "retrieve credentials from a secret backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				sender := grip.GetSender()
				_ = sender.SetLevel(send.LevelInfo{
					Default:   level.Info,
					Threshold: level.Debug,
				})
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newAWSCommand())
	cmd.AddCommand(newHashicorpCommand())
	cmd.AddCommand(newBitwardenCommand())

	return cmd
}

func newAWSCommand() *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "aws <service> <credential>",
		Short: "retrieve a credential from AWS Secrets Manager",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := awsutil.NewClientOptions().SetRegion(region)
			return getCredential(cmd.Context(), *factory.NewOptions().
				SetBackend(credman.BackendAWS).
				SetAWS(opts), args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&region, "region", os.Getenv("AWS_REGION"), "AWS region")

	return cmd
}

func newHashicorpCommand() *cobra.Command {
	var (
		address string
		token   string
		caCert  string
		mount   string
	)

	cmd := &cobra.Command{
		Use:   "hashicorp <service> <credential>",
		Short: "retrieve a credential from a HashiCorp Vault KV store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if address == "" {
				if address, err = prompt("Vault address"); err != nil {
					return err
				}
			}
			if token == "" {
				if token, err = promptSecret("Vault token"); err != nil {
					return err
				}
			}

			opts := hcvault.NewBackendOptions().
				SetAddress(address).
				SetToken(token).
				SetCACert(caCert).
				SetMount(mount)
			return getCredential(cmd.Context(), *factory.NewOptions().
				SetBackend(credman.BackendHashicorp).
				SetHashicorp(opts), args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&address, "address", os.Getenv("CREDMAN_VAULT_ADDR"), "Vault server URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("CREDMAN_VAULT_TOKEN"), "Vault authentication token")
	cmd.Flags().StringVar(&caCert, "ca-cert", os.Getenv("CREDMAN_VAULT_CACERT"), "path of a PEM-encoded CA certificate file")
	cmd.Flags().StringVar(&mount, "mount", "", "mount path of the KV v2 secrets engine")

	return cmd
}

func newBitwardenCommand() *cobra.Command {
	var (
		email    string
		execPath string
		viaStdin bool
	)

	cmd := &cobra.Command{
		Use:   "bitwarden <service> <credential>",
		Short: "retrieve a credential from a Bitwarden vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = prompt("Bitwarden email"); err != nil {
					return err
				}
			}
			password := os.Getenv("CREDMAN_BW_PASSWORD")
			if password == "" {
				if password, err = promptSecret("Bitwarden master password"); err != nil {
					return err
				}
			}

			opts := bitwarden.NewBackendOptions().
				SetEmail(email).
				SetPassword(password).
				SetExecutablePath(execPath).
				SetSecretsViaStdin(viaStdin)
			if clientID := os.Getenv("CREDMAN_BW_CLIENTID"); clientID != "" {
				opts.SetAPIKey(clientID, os.Getenv("CREDMAN_BW_CLIENTSECRET"))
			}
			return getCredential(cmd.Context(), *factory.NewOptions().
				SetBackend(credman.BackendBitwarden).
				SetBitwarden(opts), args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&email, "email", os.Getenv("CREDMAN_BW_EMAIL"), "Bitwarden account email")
	cmd.Flags().StringVar(&execPath, "executable", "", "path of the bw executable")
	cmd.Flags().BoolVar(&viaStdin, "secrets-via-stdin", false, "pipe the master password over stdin instead of as an argument")

	return cmd
}

func getCredential(ctx context.Context, opts factory.Options, serviceName, credentialName string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m, err := factory.NewManager(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "constructing manager")
	}
	defer func() {
		grip.Debug(errors.Wrap(m.Close(ctx), "closing manager"))
	}()

	val, err := m.GetSecret(ctx, serviceName, credentialName)
	if err != nil {
		return err
	}

	fmt.Println(val)

	return nil
}

func prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", label)
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", label)
	}
	return string(secret), nil
}

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"moneymanager/internal/core"
)

type credentialFlags struct {
	email       string
	password    string
	provider    string
	idToken     string
	accessToken string
	requestURI  string
}

func (f *credentialFlags) register(cmd *cobra.Command, federated bool) {
	cmd.Flags().StringVar(&f.email, "email", "", "Account email")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password (read from stdin when empty)")
	if federated {
		cmd.Flags().StringVar(&f.provider, "provider", "", "Federated provider id, e.g. google.com")
		cmd.Flags().StringVar(&f.idToken, "id-token", "", "ID token issued by the federated provider")
		cmd.Flags().StringVar(&f.accessToken, "access-token", "", "Access token issued by the federated provider")
		cmd.Flags().StringVar(&f.requestURI, "request-uri", "http://localhost", "Redirect URI registered with the provider")
	}
}

func (f *credentialFlags) readPassword(in io.Reader) error {
	if f.password != "" {
		return nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read password: %w", err)
	}
	f.password = strings.TrimRight(line, "\r\n")
	return nil
}

func (r *Runner) loginCommand() *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password or a federated provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.App(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var id core.Identity
			if f.provider != "" {
				id, err = app.Session.SignInWithFederatedProvider(ctx, core.FederatedCredential{
					ProviderID:  f.provider,
					IDToken:     f.idToken,
					AccessToken: f.accessToken,
					RequestURI:  f.requestURI,
				})
			} else {
				if err := f.readPassword(cmd.InOrStdin()); err != nil {
					return err
				}
				id, err = app.Session.SignInWithEmail(ctx, f.email, f.password)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Signed in as %s\n", id.Email)
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func (r *Runner) signupCommand() *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.App(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := f.readPassword(cmd.InOrStdin()); err != nil {
				return err
			}
			id, err := app.Session.SignUpWithEmail(ctx, f.email, f.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Account created. Signed in as %s\n", id.Email)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func (r *Runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.App(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := app.Session.SignOut(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Signed out")
			return nil
		},
	}
}

func (r *Runner) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.App(cmd)
			if err != nil {
				return err
			}
			id, err := app.Session.Require()
			if err != nil {
				return err
			}
			return r.printer.Identity(id)
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *app) createAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: "Create an administrator account. The password must satisfy the same policy as " +
			"self-registration. When --password is omitted it is read from the terminal without echo.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = a.promptPassword(); err != nil {
					return err
				}
			}

			return a.withAccounts(cmd, func(ctx context.Context, svc ports.AuthService) error {
				id, err := svc.CreateAccount(ctx, ports.CreateAccountInput{
					Name:     name,
					Email:    email,
					Password: password,
					Role:     domain.RoleAdmin,
				})
				if err != nil {
					return describe(err)
				}
				a.print("Admin created.")
				a.print("ID:    %s", id.ID)
				a.print("Email: %s", id.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name of the administrator")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) setRoleCmd() *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("invalid role %q: use %s or %s", role, domain.RoleClient, domain.RoleAdmin)
			}

			return a.withAccounts(cmd, func(ctx context.Context, svc ports.AuthService) error {
				id, err := svc.SetRole(ctx, email, r)
				if err != nil {
					return describe(err)
				}
				a.print("%s is now %s.", id.Email, id.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the account")
	cmd.Flags().StringVar(&role, "role", "", "new role: client or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	first, err := a.readPassword()
	if err != nil {
		return "", err
	}
	fmt.Fprint(a.out, "Confirm password: ")
	second, err := a.readPassword()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}

// describe turns service errors into operator-facing text.
func describe(err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errors.New(strings.Join(verr.Messages, "\n"))
	case errors.Is(err, domain.ErrEmailTaken):
		return errors.New("an account with that email already exists")
	case errors.Is(err, domain.ErrUserNotFound):
		return errors.New("no account with that email")
	}
	return err
}

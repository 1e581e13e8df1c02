package cli

import (
	"fmt"

	"github.com/daily-ledger/internal/database"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/keygen"
	"github.com/spf13/cobra"
)

const generatedPasswordLength = 20

// CreateAdminOptions holds flags for create-admin.
type CreateAdminOptions struct {
	UserID   string
	Password string
	FullName string
}

// NewCreateAdminCommand creates the create-admin command.
func NewCreateAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first administrator account",
		Long: `Create an administrator account unless the userid already exists.

When --password is omitted a random password is generated and printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "userid", "admin", "login name of the administrator")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (generated when empty)")
	cmd.Flags().StringVar(&opts.FullName, "full-name", "Administrator", "display name")

	return cmd
}

func runCreateAdmin(rootOpts *RootOptions, opts *CreateAdminOptions, cmd *cobra.Command) error {
	cfg, db, err := openDatabase(rootOpts)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	password := opts.Password
	generated := password == ""
	if generated {
		password, err = keygen.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return err
		}
	}

	store := repository.NewStore(db)
	audit := service.NewAuditService(store, nil, cfg.Audit)
	users := service.NewUserService(store, audit, nil)

	user, created, err := users.EnsureAdmin(cmd.Context(), opts.UserID, password, opts.FullName)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	out := cmd.OutOrStdout()
	if !created {
		fmt.Fprintf(out, "user %s already exists (admin=%t); nothing changed\n", user.UserID, user.IsAdmin)
		return nil
	}
	fmt.Fprintf(out, "created admin %s\n", user.UserID)
	if generated {
		fmt.Fprintf(out, "password: %s\n", password)
	}
	return nil
}

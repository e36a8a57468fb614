// checklistctl 运维命令：建表/建索引、创建用户、修改角色
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"checklist-api/internal/app"
	"checklist-api/internal/controller"
	"checklist-api/internal/core/config"
	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	configPath string
	out        io.Writer
}

// open 按配置打开存储；调用方负责 Close
func (c *cli) open(ctx context.Context, migrate bool) (*app.Stores, error) {
	cfg := config.Load(c.configPath)
	return app.OpenStores(ctx, cfg, zap.NewNop(), migrate)
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:          "checklistctl",
		Short:        "Operator commands for checklist-api",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "config file (default ./configs/config.local.yaml)")

	root.AddCommand(c.migrateCmd(), c.userCmd())
	return root
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables (gorm) or indexes (mongo)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())
			fmt.Fprintf(c.out, "migrated %s store\n", st.Backend)
			return nil
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}

	var username, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != domain.RoleUser && role != domain.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", domain.RoleUser, domain.RoleAdmin)
			}
			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			st, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			u, err := controller.NewUserController(st.Repos.Users).
				AddNewUser(cmd.Context(), &domain.User{Username: username, PasswordHash: hash, Role: role})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "created %s %s (%s)\n", u.ID, u.Username, u.Role)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "username")
	create.Flags().StringVar(&password, "password", "", "password")
	create.Flags().StringVar(&role, "role", domain.RoleUser, "user | admin")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	setRole := &cobra.Command{
		Use:   "role <username> <user|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, newRole := args[0], args[1]
			if newRole != domain.RoleUser && newRole != domain.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", domain.RoleUser, domain.RoleAdmin)
			}
			st, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			users := controller.NewUserController(st.Repos.Users)
			u, err := users.GetUserByUsername(cmd.Context(), name)
			if err != nil {
				return err
			}
			u, err = users.UpdateUser(cmd.Context(), u.ID, domain.UserPatch{Role: &newRole})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s is now %s\n", u.Username, u.Role)
			return nil
		},
	}

	user.AddCommand(create, setRole)
	return user
}

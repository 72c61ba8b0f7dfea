package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-todo-api/cmd/todo/ui"
	"github.com/redmonkez12/go-todo-api/internal/client"
	"github.com/redmonkez12/go-todo-api/internal/todo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		ui.PrintError(os.Stderr, err.Error())
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Run `todo login` to start a new session.")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage your todos from the terminal",
		Long:          "Command line client for the todo API. The session token is kept in ~/.todo-token unless TODO_TOKEN is set.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultServer := os.Getenv("TODO_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().String("server", defaultServer, "API base URL (env TODO_SERVER)")

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE:  runCredentials(true),
	}
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an existing account",
		RunE:  runCredentials(false),
	}
	for _, cmd := range []*cobra.Command{signupCmd, loginCmd} {
		cmd.Flags().String("email", "", "Account email")
		cmd.Flags().String("password", "", "Account password (prompted when omitted)")
	}

	rootCmd.AddCommand(
		signupCmd,
		loginCmd,
		&cobra.Command{
			Use:   "logout",
			Short: "Revoke the current session token",
			Args:  cobra.NoArgs,
			RunE:  runLogout,
		},
		&cobra.Command{
			Use:   "me",
			Short: "Show the logged in account",
			Args:  cobra.NoArgs,
			RunE:  runMe,
		},
		&cobra.Command{
			Use:   "add <text>",
			Short: "Add a todo",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runAdd,
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List your todos",
			Args:    cobra.NoArgs,
			RunE:    runList,
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one todo",
			Args:  cobra.ExactArgs(1),
			RunE:  runGet,
		},
		&cobra.Command{
			Use:   "done <id>",
			Short: "Mark a todo completed",
			Args:  cobra.ExactArgs(1),
			RunE:  runSetCompleted(true),
		},
		&cobra.Command{
			Use:   "undo <id>",
			Short: "Mark a todo open again",
			Args:  cobra.ExactArgs(1),
			RunE:  runSetCompleted(false),
		},
		&cobra.Command{
			Use:   "edit <id> <text>",
			Short: "Change a todo's text",
			Args:  cobra.MinimumNArgs(2),
			RunE:  runEdit,
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a todo",
			Args:    cobra.ExactArgs(1),
			RunE:    runRemove,
		},
	)

	return rootCmd
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	server, _ := cmd.Flags().GetString("server")

	token, err := loadToken()
	if err != nil {
		return nil, err
	}
	return client.New(server, token), nil
}

func runCredentials(signup bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if err := ui.PromptCredentials(&email, &password); err != nil {
			return fmt.Errorf("prompt cancelled: %w", err)
		}

		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		call := c.Login
		if signup {
			call = c.Signup
		}
		u, err := call(cmd.Context(), strings.TrimSpace(email), password)
		if err != nil {
			return err
		}

		if err := saveToken(c.Token); err != nil {
			return err
		}

		ui.PrintSuccess(cmd.OutOrStdout(), "Logged in as "+u.Email)
		return nil
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	// A token the server no longer knows is as good as logged out
	if err := c.Logout(cmd.Context()); err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	if err := clearToken(); err != nil {
		return err
	}

	ui.PrintSuccess(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runMe(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	u, err := c.Me(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", u.Email, u.ID)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	t, err := c.CreateTodo(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.FormatTodo(*t))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	todos, err := c.ListTodos(cmd.Context())
	if err != nil {
		return err
	}

	ui.PrintTodos(cmd.OutOrStdout(), todos)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	return withItem(cmd, func(ctx context.Context, c *client.Client) (*todo.Todo, error) {
		return c.GetTodo(ctx, args[0])
	})
}

func runSetCompleted(completed bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withItem(cmd, func(ctx context.Context, c *client.Client) (*todo.Todo, error) {
			return c.UpdateTodo(ctx, args[0], todo.UpdateRequest{Completed: &completed})
		})
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	text := strings.Join(args[1:], " ")
	return withItem(cmd, func(ctx context.Context, c *client.Client) (*todo.Todo, error) {
		return c.UpdateTodo(ctx, args[0], todo.UpdateRequest{Text: &text})
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	t, err := c.DeleteTodo(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	ui.PrintSuccess(cmd.OutOrStdout(), "Deleted: "+t.Text)
	return nil
}

// withItem runs a single-todo call and prints the result
func withItem(cmd *cobra.Command, call func(ctx context.Context, c *client.Client) (*todo.Todo, error)) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	t, err := call(cmd.Context(), c)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.FormatTodo(*t))
	return nil
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/curricula/pkg/backend"
	"github.com/matzehuels/curricula/pkg/session"
)

// tokenEnv holds an access token for non-interactive logins.
const tokenEnv = "CURRICULA_TOKEN"

// loginCommand stores a session for an access token issued by the auth
// provider and registers the user with the backend.
func (c *CLI) loginCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an access token",
		Long: `Sign in with an access token from the web app.

The token is read from --token, the ` + tokenEnv + ` environment variable, or
standard input. The session is stored in the user config directory and lasts
until the token expires.`,
		Example: `  curricula login --token "$TOKEN"
  pbpaste | curricula login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv(tokenEnv)
			}
			if token == "" {
				t, err := readToken(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = t
			}
			return c.runLogin(cmd.Context(), token)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (default $"+tokenEnv+" or stdin)")
	return cmd
}

// readToken reads the first non-empty line of r.
func readToken(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			return t, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return "", fmt.Errorf("no access token given (use --token or $%s)", tokenEnv)
}

func (c *CLI) runLogin(ctx context.Context, token string) error {
	sess, err := session.FromToken(token, c.config.Session.JWTSecret, sessionTTL)
	if err != nil {
		return err
	}
	store, err := c.sessionStore()
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	client, cc, err := c.newClient(ctx, true)
	if err != nil {
		return err
	}
	defer cc.Close()
	// The backend may already know the user; a failed registration does not
	// invalidate the login.
	if err := client.Login(backend.WithToken(ctx, token), backend.LoginRequest{Email: sess.Email, UserID: sess.UserID}); err != nil {
		c.Logger.Warn("backend login failed", "user", sess.UserID, "error", err)
	}

	who := sess.Email
	if who == "" {
		who = sess.UserID
	}
	printSuccess("Logged in as %s", who)
	printDetail("Session expires %s", sess.ExpiresAt.Format("Jan 2, 2006 15:04"))
	return nil
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.sessionStore()
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := store.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, ctx, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			client, cc, err := c.newClient(ctx, true)
			if err != nil {
				return err
			}
			defer cc.Close()

			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			spinner := newSpinner(ctx, "Fetching profile...")
			spinner.Start()
			user, err := client.User(ctx, sess.UserID)
			spinner.Stop()
			if err != nil {
				return fmt.Errorf("fetch profile: %w", err)
			}

			printSuccess("Signed in")
			printKeyValue("User", user.ID)
			if email := firstNonEmpty(user.Email, sess.Email); email != "" {
				printKeyValue("Email", email)
			}
			if user.Program != "" {
				printKeyValue("Program", user.Program)
			}
			if user.StudentCode != "" {
				printKeyValue("Student", user.StudentCode)
			}
			printKeyValue("Credits", strconv.Itoa(user.TotalCredits))
			printKeyValue("Approved", strconv.Itoa(len(user.ApprovedCodes)))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))
			return nil
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

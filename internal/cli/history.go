package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zseed/internal/store"
	"golang.org/x/term"
)

// historyDir is the history's subdirectory of the data directory.
const historyDir = "history"

// ReadPassword prompts for a password on w and reads it without echo.
func ReadPassword(prompt string, w io.Writer) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// ReadNewPassword prompts for a new password with confirmation.
func ReadNewPassword(w io.Writer) (string, error) {
	pass, err := ReadPassword("history password: ", w)
	if err != nil {
		return "", err
	}
	confirm, err := ReadPassword("confirm password: ", w)
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pass, nil
}

// IsFirstRun checks whether the history in dir has been initialized.
func IsFirstRun(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "salt"))
	return err != nil
}

// openHistory opens the history under the data directory, taking the
// password from ZSEED_PASSWORD or the terminal.
func (a *app) openHistory() (*store.History, error) {
	dir := filepath.Join(a.cfg.DataDir, historyDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	pass := a.cfg.Password
	if pass == "" {
		var err error
		if IsFirstRun(dir) {
			pass, err = ReadNewPassword(os.Stderr)
		} else {
			pass, err = ReadPassword("history password: ", os.Stderr)
		}
		if err != nil {
			return nil, err
		}
	}

	return store.Open(zfilesystem.NewOSFileSystem(dir), pass)
}

func (a *app) historyCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.List()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				if runs == nil {
					runs = []store.Run{}
				}
				return printJSON(w, runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(w, zstyle.MutedText.Render("no recorded runs"))
				return nil
			}
			for _, r := range runs {
				printRun(w, r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) forgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <id>",
		Short: "Delete a recorded run by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			defer h.Close()

			r, err := h.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), zstyle.StatusOK.Render("forgot run "+r.ShortID()))
			return nil
		},
	}
}

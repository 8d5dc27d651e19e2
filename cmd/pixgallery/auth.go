package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pixgallery/pkg/auth"
	"pixgallery/pkg/config"
	"pixgallery/pkg/ui"
)

var checkKey bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Pixabay API key",
	Long: `Manage stored Pixabay API keys.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file under the config directory
  - PIXGALLERY_API_KEY environment variable (read only)

Keys are kept per profile; select one with --profile.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a Pixabay API key",
	Long: `Store a Pixabay API key in the system keychain or the encrypted file.

You will be prompted for the key. It is not echoed to the terminal.`,
	Example: `  # Store the key for the default profile
  pixgallery auth login

  # Store a second key
  pixgallery auth login --profile work`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove a stored API key",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which API key will be used",
	Long: `Show the stored profiles and which key a search would use.

With --check a single live search is made to confirm the key works and to
read the remaining request quota.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to get a Pixabay API key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowAPIKeyGuide(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(guideCmd)

	statusCmd.Flags().BoolVar(&checkKey, "check", false, "verify the key with a live request")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	ui.PrintLogo()
	auth.ShowAPIKeyGuide(os.Stdout)

	if existing, _ := manager.Retrieve(profile); existing != nil {
		ui.PrintWarning("A key is already stored for profile", profile)
		fmt.Print("Replace it? (y/N): ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Keeping the existing key.")
			return nil
		}
	}

	fmt.Print("Pixabay API key: ")
	key, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read API key", err)
		return err
	}
	key = strings.TrimSpace(key)
	if err := auth.ValidateAPIKey(key); err != nil {
		ui.PrintError("Invalid API key", err)
		return err
	}

	storeName, err := manager.Store(&auth.Credential{Profile: profile, APIKey: key})
	if err != nil {
		ui.PrintError("Failed to store API key", err)
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("API key for profile %q stored in %s", profile, storeName))
	fmt.Println("\nRun 'pixgallery auth status --check' to test it.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	if err := manager.Delete(profile); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored key for profile", profile)
			return nil
		}
		ui.PrintError("Failed to remove API key", err)
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Removed API key for profile %q", profile))
	if os.Getenv(auth.EnvAPIKey) != "" {
		ui.PrintWarning(auth.EnvAPIKey + " is still set in the environment")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	ui.PrintInfo("Credential stores", strings.Join(manager.StoreNames(), ", "))

	creds, err := manager.List()
	if err != nil {
		ui.PrintWarning("Failed to list stored keys", err)
	}
	if len(creds) == 0 {
		fmt.Println("No stored profiles.")
	} else {
		fmt.Println("\nStored profiles:")
		for _, c := range creds {
			marker := " "
			if c.Profile == profile {
				marker = "*"
			}
			line := fmt.Sprintf(" %s %-12s %s", marker, c.Profile, auth.MaskKey(c.APIKey))
			if !c.LastModified.IsZero() {
				line += ui.Dim("  updated " + c.LastModified.Format("2006-01-02"))
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	a, err := newApp(cmd, config.Overrides{}, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Pixabay.APIKey == "" {
		ui.PrintError("No API key available for profile", profile)
		auth.ShowQuickGuide(os.Stdout)
		return errors.New("missing API key")
	}
	ui.PrintInfo("Active key", fmt.Sprintf("%s (%s)", auth.MaskKey(a.cfg.Pixabay.APIKey), a.keySource))

	if !checkKey {
		return nil
	}

	res, err := a.client.Search(cmd.Context(), "test", 1)
	if err != nil {
		ui.PrintError("API key check failed", err)
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("API key works (%d hits for \"test\")", res.TotalHits))
	if q := a.client.Quota(); q.Limit > 0 {
		ui.PrintInfo("API quota", ui.QuotaStatus(q.Remaining, q.Limit))
	}
	return nil
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		key, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(key), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gsvbatch/pkg/auth"
	"gsvbatch/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Street View API keys",
	Long: `Manage stored Street View API keys securely.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your API keys or config files!`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Store a Street View API key securely",
	Long: `Store a Street View API key in the system keychain or encrypted file.

You will be prompted for the key; it is hidden as you type. The optional
name lets you keep several keys (for example one per project) and pick
one at fetch time with --key-name.`,
	Example: `  # Store the default key
  gsvbatch auth set

  # Store a named key
  gsvbatch auth set myproject`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthSet,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored API keys",
	Long:  `List all stored API keys with masked values.`,
	Run:   runAuthList,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a stored API key",
	Long: `Remove a stored Street View API key.

If no name is provided, you will be shown a list of stored keys to
choose from.`,
	Example: `  # Interactive removal
  gsvbatch auth remove

  # Remove a specific key
  gsvbatch auth remove myproject`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	// Confirm overwrite of an existing key
	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Key '%s' already exists. Update it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Street View API key (hidden as you type): ")
	key, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read API key", err.Error())
		os.Exit(1)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		ui.PrintError("API key is required", "")
		os.Exit(1)
	}

	cred := &auth.Credential{
		Name:   name,
		APIKey: key,
	}

	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store API key", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("API key stored: " + name + " (" + auth.MaskKey(key) + ")")

	fmt.Println("\nQuick start:")
	fmt.Println("  gsvbatch fetch --location \"46.414382,10.013988\"")
	if name != "default" {
		fmt.Printf("  gsvbatch fetch --location <lat,lng> --key-name %s\n", name)
	}
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	creds, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list API keys", err.Error())
		os.Exit(1)
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored API keys", "Use 'gsvbatch auth set' to add one")
		return
	}

	ui.PrintHighlight("Stored API Keys")
	fmt.Println()

	for i, cred := range creds {
		fmt.Printf("%d. Name: %s\n", i+1, cred.Name)
		fmt.Printf("   Key: %s\n", auth.MaskKey(cred.APIKey))
		fmt.Printf("   Last Modified: %s\n", cred.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		name := args[0]
		if err := manager.Delete(name); err != nil {
			ui.PrintError("Failed to remove API key", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("API key removed: " + name)
		return
	}

	creds, err := manager.List()
	if err != nil || len(creds) == 0 {
		ui.PrintError("No stored API keys found", "")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(creds) == 1 {
		cred := creds[0]
		fmt.Printf("Remove key '%s'? (y/N): ", cred.Name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}

		if err := manager.Delete(cred.Name); err != nil {
			ui.PrintError("Failed to remove API key", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("API key removed: " + cred.Name)
		return
	}

	fmt.Println("Select key to remove:")
	for i, cred := range creds {
		fmt.Printf("  %d. %s (%s)\n", i+1, cred.Name, auth.MaskKey(cred.APIKey))
	}
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	if choice < 1 || choice > len(creds) {
		return
	}

	cred := creds[choice-1]
	if err := manager.Delete(cred.Name); err != nil {
		ui.PrintError("Failed to remove API key", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("API key removed: " + cred.Name)
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

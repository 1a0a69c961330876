package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"roomboss-cli/api"
	"roomboss-cli/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage RoomBoss API credentials",
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authStatusCmd())
	cmd.AddCommand(authLogoutCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	var username string
	var password string
	var authFile string
	var skipVerify bool
	authFileDefault := os.Getenv("ROOMBOSS_AUTH_FILE")

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save RoomBoss API credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if authFile != "" {
				fileUser, filePassword, err := readAuthFile(authFile)
				if err != nil {
					return err
				}
				if username == "" {
					username = fileUser
				}
				if password == "" {
					password = filePassword
				}
			}

			if username == "" {
				fmt.Print("Username: ")
				reader := bufio.NewReader(os.Stdin)
				value, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(value)
			}
			if password == "" {
				fmt.Print("Password: ")
				bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return err
				}
				password = strings.TrimSpace(string(bytes))
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			client.Username = username
			client.Password = password
			if !skipVerify {
				ctx := context.Background()
				if _, err := client.ListHotels(ctx, cfg.Defaults.CountryCode, cfg.Defaults.LocationCode); err != nil {
					if api.IsHTTPStatus(err, http.StatusUnauthorized) || api.IsHTTPStatus(err, http.StatusForbidden) {
						return fmt.Errorf("RoomBoss rejected the credentials for %s", username)
					}
					return fmt.Errorf("verify credentials: %w", err)
				}
			}

			creds := storage.Credentials{
				Username: username,
				Password: password,
				BaseURL:  client.BaseURL,
			}
			if err := storage.SaveCredentials(&creds); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s.\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "API username")
	cmd.Flags().StringVar(&password, "password", "", "API password")
	cmd.Flags().StringVar(&authFile, "auth-file", authFileDefault, "Load credentials from file (default: $ROOMBOSS_AUTH_FILE)")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Save without checking the credentials against the API")
	return cmd
}

func authStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which credentials are in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.API.Username != "" && cfg.API.Password != "" {
				fmt.Printf("Using %s from the environment (%s).\n", cfg.API.Username, client.BaseURL)
				return nil
			}

			creds, err := storage.LoadCredentials()
			if err != nil {
				return err
			}
			if !creds.Complete() {
				fmt.Println("Not logged in.")
				return nil
			}

			fmt.Printf("Logged in as %s (%s).\n", creds.Username, client.BaseURL)
			if creds.SavedAt != "" {
				fmt.Printf("Saved: %s\n", creds.SavedAt)
			}
			return nil
		},
	}

	return cmd
}

func authLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.ClearCredentials(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}

	return cmd
}

// readAuthFile reads a file with [username] and [password] sections, each
// followed by its value on the next line.
func readAuthFile(path string) (string, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var username string
	var password string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "[username]":
			if scanner.Scan() {
				username = strings.TrimSpace(scanner.Text())
			}
		case "[password]":
			if scanner.Scan() {
				password = strings.TrimSpace(scanner.Text())
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	return username, password, nil
}

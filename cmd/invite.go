// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var bearerToken string

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Manage admin invitation tokens",
}

var createInviteCmd = &cobra.Command{
	Use:   "create [email]",
	Short: "Issue an invitation token bound to an email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		validity, _ := cmd.Flags().GetString("validity")

		body := map[string]string{"email": args[0]}
		if validity != "" {
			body["validity"] = validity
		}

		var resp struct {
			Token           string    `json:"token"`
			Email           string    `json:"email"`
			RegistrationURL string    `json:"registration_url"`
			ExpiresAt       time.Time `json:"expires_at"`
		}
		if err := doRequest(http.MethodPost, "/api/v0/tokens", body, &resp); err != nil {
			return fmt.Errorf("failed to issue invitation: %w", err)
		}

		fmt.Printf("Token: %s\n", resp.Token)
		fmt.Printf("Registration URL: %s\n", resp.RegistrationURL)
		fmt.Printf("Expires at: %s\n", resp.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

var listInvitesCmd = &cobra.Command{
	Use:   "list",
	Short: "List invitation tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp []struct {
			Value     string    `json:"value"`
			Email     string    `json:"email"`
			Status    string    `json:"status"`
			ExpiresAt time.Time `json:"expires_at"`
		}
		if err := doRequest(http.MethodGet, "/api/v0/tokens", nil, &resp); err != nil {
			return fmt.Errorf("failed to list invitations: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VALUE\tEMAIL\tSTATUS\tEXPIRES AT")
		for _, t := range resp {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Value, t.Email, t.Status, t.ExpiresAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var deleteInviteCmd = &cobra.Command{
	Use:   "delete [value]",
	Short: "Delete an invitation token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doRequest(http.MethodDelete, "/api/v0/tokens/"+args[0], nil, nil); err != nil {
			return fmt.Errorf("failed to delete invitation: %w", err)
		}

		fmt.Println("Invitation deleted")
		return nil
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant [email]",
	Short: "Grant admin directly to the principal behind an email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			IsAdmin bool   `json:"is_admin"`
		}
		if err := doRequest(http.MethodPost, "/api/v0/elevation/grant", map[string]string{"email": args[0]}, &resp); err != nil {
			return fmt.Errorf("failed to grant admin: %w", err)
		}

		fmt.Printf("Granted admin to %s (ID: %s)\n", resp.Email, resp.ID)
		return nil
	},
}

func doRequest(method, path string, body, out interface{}) error {
	endpoint := httpEndpoint
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "http://" + endpoint
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func init() {
	createInviteCmd.Flags().String("validity", "", "Token validity as a duration, e.g. 72h")

	inviteCmd.AddCommand(createInviteCmd)
	inviteCmd.AddCommand(listInvitesCmd)
	inviteCmd.AddCommand(deleteInviteCmd)

	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.PersistentFlags().StringVar(&bearerToken, "bearer-token", "", "Bearer token for authenticated requests")
}

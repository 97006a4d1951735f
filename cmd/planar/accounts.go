package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"planar/internal/domain"
	appErrors "planar/internal/errors"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"
)

const accountsUsage = "planar accounts [--json]"

func runAccounts(ctx context.Context, e env, args []string) error {
	flagSet := pflag.NewFlagSet("accounts", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	asJSON := flagSet.Bool("json", false, "print JSON")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(e.stderr, accountsUsage, flagSet)
			return nil
		}
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printCommandHelp(e.stderr, accountsUsage, flagSet)
		return nil
	}

	s, err := loadSettings(false)
	if err != nil {
		return err
	}
	client := e.newClient(s)
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	payloads, err := client.ListAccounts(reqCtx)
	if err != nil {
		return err
	}
	accounts := make([]domain.Account, 0, len(payloads))
	for _, p := range payloads {
		accounts = append(accounts, domain.NewAccountFromPayload(p))
	}

	if *asJSON {
		type row struct {
			Provider          string         `json:"provider"`
			ProviderAccountID string         `json:"provider_account_id"`
			User              string         `json:"user"`
			CreatedAt         string         `json:"created_at"`
			LastConnectedAt   string         `json:"last_connected_at"`
			Metadata          map[string]any `json:"metadata,omitempty"`
		}
		rows := make([]row, 0, len(accounts))
		for _, a := range accounts {
			rows = append(rows, row{a.Provider, a.ProviderAccountID, a.UserID, a.CreatedAt, a.LastConnectedAt, a.Metadata})
		}
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(accounts) == 0 {
		fmt.Fprintln(e.stdout, "No linked accounts.")
		return nil
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("PROVIDER", "ACCOUNT", "LAST CONNECTED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle.PaddingRight(2)
			}
			return listCellStyle
		})
	for _, a := range accounts {
		t.Row(a.Provider, a.ProviderAccountID, a.LastConnectedAt)
	}
	fmt.Fprintln(e.stdout, strings.TrimRight(t.Render(), "\n"))
	return nil
}

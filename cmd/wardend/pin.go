package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/closedclaw/warden/internal/clifmt"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the owner PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Enroll or replace the owner PIN",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		sessions, err := sessionsFromViper(log)
		if err != nil {
			return err
		}

		pin, err := readPIN("New PIN: ")
		if err != nil {
			return err
		}
		again, err := readPIN("Repeat PIN: ")
		if err != nil {
			return err
		}
		if pin != again {
			return fmt.Errorf("pins do not match")
		}

		owner := viper.GetString("owner.principal_id")
		if err := sessions.SetPIN(owner, pin); err != nil {
			return err
		}
		fmt.Println(clifmt.Success("PIN enrolled for " + owner))
		return nil
	},
}

func readPIN(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	// Piped input (tests, scripts).
	var pin string
	if _, err := fmt.Fscanln(os.Stdin, &pin); err != nil {
		return "", err
	}
	return strings.TrimSpace(pin), nil
}

func init() {
	pinCmd.AddCommand(pinSetCmd)
	rootCmd.AddCommand(pinCmd)
}

// Package ui renders contactsctl prompts and results in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// NewUser holds the answers of the account creation form.
type NewUser struct {
	Email     string
	Username  string
	Password  string
	Confirmed bool
}

// RunUserForm asks for the fields of a new account that were not given as flags.
func RunUserForm(in *NewUser) error {
	var fields []huh.Field

	if in.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("alice@example.com").
			Value(&in.Email).
			Validate(required("email")))
	}
	if in.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&in.Username).
			Validate(required("username")))
	}
	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			Description("At least 8 characters").
			EchoMode(huh.EchoModePassword).
			Value(&in.Password).
			Validate(required("password")))
	}
	fields = append(fields, huh.NewConfirm().
		Title("Mark the email as confirmed?").
		Value(&in.Confirmed))

	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// PrintUser prints an account summary under title.
func PrintUser(title string, u *user.User) {
	fmt.Println(titleStyle.Render(title))
	fmt.Println(labelStyle.Render("ID") + u.ID.String())
	fmt.Println(labelStyle.Render("Email") + u.Email)
	fmt.Println(labelStyle.Render("Username") + u.Username)
	fmt.Println(labelStyle.Render("Confirmed") + fmt.Sprint(u.Confirmed))
	fmt.Println(labelStyle.Render("Session") + fmt.Sprint(u.HasSession()))
	fmt.Println()
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}

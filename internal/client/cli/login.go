package cli

import (
	"context"
	"fmt"
)

// runRegister регистрирует аккаунт и сохраняет сессию локально
func (c *Cli) runRegister(ctx context.Context) error {
	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	authData, err := c.auth.Register(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Printf("Registered and logged in as %s\n", authData.Username)
	return nil
}

// runLogin выполняет вход и сохраняет сессию локально
func (c *Cli) runLogin(ctx context.Context) error {
	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	authData, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Printf("Logged in as %s\n", authData.Username)
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return err
	}
	c.io.Println("Logged out")
	return nil
}

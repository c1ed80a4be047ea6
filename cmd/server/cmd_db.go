package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/grillhouse/internal/database"
	"github.com/example/grillhouse/internal/utils"
)

// grillhouse migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := boot()
		if err != nil {
			return err
		}
		defer closeDB(db)

		fmt.Println("Migrations applied.")
		return nil
	},
}

// grillhouse seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty catalog with the demo menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := boot()
		if err != nil {
			return err
		}
		defer closeDB(db)

		created, err := database.Seed(db)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d products.\n", created)
		return nil
	},
}

var adminFlags struct {
	email    string
	phone    string
	password string
}

// grillhouse create-admin --email ... --phone ... --password ...
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator or reset an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.ToLower(strings.TrimSpace(adminFlags.email))
		phone := utils.NormalizePhone(adminFlags.phone)
		if !utils.ValidPhone(phone) {
			return fmt.Errorf("invalid phone %q", adminFlags.phone)
		}
		if len(adminFlags.password) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		_, db, err := boot()
		if err != nil {
			return err
		}
		defer closeDB(db)

		hash, err := utils.HashPassword(adminFlags.password)
		if err != nil {
			return err
		}
		admin, err := database.UpsertAdmin(db, email, phone, hash)
		if err != nil {
			return err
		}
		fmt.Printf("Administrator %s ready (id %s).\n", email, admin.ID)
		return nil
	},
}

func init() {
	flags := createAdminCmd.Flags()
	flags.StringVar(&adminFlags.email, "email", "", "administrator email")
	flags.StringVar(&adminFlags.phone, "phone", "", "administrator phone")
	flags.StringVar(&adminFlags.password, "password", "", "administrator password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("phone")
	_ = createAdminCmd.MarkFlagRequired("password")
}

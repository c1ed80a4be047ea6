package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/models"
)

type seedProduct struct {
	name        string
	description string
	price       string
	image       string
}

var seedMenu = []struct {
	category string
	products []seedProduct
}{
	{"Main dishes", []seedProduct{
		{"Grilled chicken No. 1", "Juicy grilled chicken with tomato and zucchini", "120.00", "/menu1.png"},
		{"Grilled chicken No. 2", "Juicy grilled rooster", "100.00", "/menu2.png"},
		{"Grilled chicken No. 3", "Plain grilled chicken", "50.00", "/menu3.png"},
	}},
	{"Combos", []seedProduct{
		{"Combo 1", "Grilled chicken piece, salad and sauce", "222.00", "/menu4.png"},
		{"Combo 2", "Chicken legs with a side salad", "111.00", "/menu5.png"},
	}},
	{"Drinks", []seedProduct{
		{"Beer", "Draft, 0.5 l", "5.00", "/menu6.png"},
		{"Vodka", "100 ml", "10.00", "/menu7.png"},
		{"Cola", "Classic, light or zero", "30.00", "/menu8.png"},
	}},
}

// Seed fills an empty catalog with the demo menu. It is a no-op when products exist.
func Seed(conn *gorm.DB) (int, error) {
	var count int64
	if err := conn.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	err := conn.Transaction(func(tx *gorm.DB) error {
		for _, group := range seedMenu {
			category := models.Category{Name: group.category}
			if err := tx.Create(&category).Error; err != nil {
				return err
			}

			for _, p := range group.products {
				description, image := p.description, p.image
				product := models.Product{
					Name:        p.name,
					Description: &description,
					Price:       decimal.RequireFromString(p.price),
					Image:       &image,
					IsActive:    true,
					CategoryID:  &category.ID,
				}
				if err := tx.Create(&product).Error; err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	return created, err
}

// UpsertAdmin creates an administrator or promotes and re-keys an existing one.
func UpsertAdmin(conn *gorm.DB, email, phone, passwordHash string) (*models.User, error) {
	var user models.User
	err := conn.Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Phone:    phone,
			Email:    &email,
			Password: &passwordHash,
			Role:     models.RoleAdmin,
			IsActive: true,
		}
		if err := conn.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create admin: %w", err)
		}
		return &user, nil
	}

	if err := conn.Model(&user).Updates(map[string]any{
		"password":  passwordHash,
		"role":      models.RoleAdmin,
		"is_active": true,
	}).Error; err != nil {
		return nil, fmt.Errorf("update admin: %w", err)
	}
	if err := conn.First(&user, "id = ?", user.ID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

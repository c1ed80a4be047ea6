package redisx

import (
	"fmt"
	"time"
)

const (
	// otp:{phone} -> code
	KeyOTP = "otp:%s"

	// otp_lock:{phone} -> "locked"
	KeyOTPLock = "otp_lock:%s"

	// menu:categories -> JSON array of categories with products
	KeyMenuCategories = "menu:categories"

	// menu:product:{id} -> JSON product
	KeyMenuProduct = "menu:product:%s"
)

var (
	TTLOTP     = 300 * time.Second
	TTLOTPLock = 60 * time.Second
	TTLMenu    = 5 * time.Minute
)

// Key formats a key template.
func Key(template string, args ...any) string {
	return fmt.Sprintf(template, args...)
}

package model

import "time"

// CategoryType indicates whether a category is for income, expense, or system use.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeSystem represents system-managed categories (e.g., transfers).
	CategoryTypeSystem CategoryType = "system"
)

// TransferCategoryName is the system category confirmed transfers are filed under.
const TransferCategoryName = "Transfer"

// Category represents a user's transaction category.
type Category struct {
	CreatedAt time.Time
	UserID    string
	Name      string
	Type      CategoryType
	ID        int
}

// IsTransfer reports whether the category is the system transfer category.
func (c *Category) IsTransfer() bool {
	return c.Type == CategoryTypeSystem && c.Name == TransferCategoryName
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ItemStatusActive   = "active"
	ItemStatusReturned = "returned"

	SaleStatusCompleted = "completed"
	SaleStatusRefunded  = "refunded"

	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentUPI  = "upi"

	DateLayout = "2006-01-02"
)

// DisplayCode renders an item id the way it is printed on tags, e.g. #000042.
func DisplayCode(id int64) string {
	return fmt.Sprintf("#%06d", id)
}

// Item is one physical saree. Stock is 0 or 1.
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	SKU       *string         `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Stock     int             `json:"stock"`
	Category  *string         `json:"category"`
	Source    *string         `json:"source"`
	ImagePath *string         `json:"image_path"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (i Item) IsActive() bool {
	return i.Status == ItemStatusActive
}

type ItemCreateRequest struct {
	Name     string          `json:"name" validate:"required,max=120"`
	SKU      string          `json:"sku" validate:"max=64"`
	Price    decimal.Decimal `json:"price" validate:"gte=0,money"`
	Cost     decimal.Decimal `json:"cost" validate:"gte=0,money"`
	Quantity int             `json:"quantity" validate:"gte=1,lte=100"`
	Category string          `json:"category" validate:"max=120"`
	Source   string          `json:"source" validate:"max=120"`
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ImageUpload carries an optional photo attached to an item create request.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type ItemCreateResponse struct {
	Items []Item   `json:"items"`
	Codes []string `json:"codes"`
}

type Sale struct {
	ID            int64           `json:"id"`
	Total         decimal.Decimal `json:"total"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	SaleID      int64           `json:"sale_id"`
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name,omitempty"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
}

// SaleLine is a sale item joined with its sale and catalog row. Reports read these.
type SaleLine struct {
	SaleID        int64
	SaleCreatedAt time.Time
	SaleStatus    string
	SaleTotal     decimal.Decimal
	ItemID        int64
	ItemName      string
	Category      *string
	Source        *string
	ItemCost      decimal.Decimal
	Quantity      int
	PriceAtSale   decimal.Decimal
}

type CartLine struct {
	ItemID   int64 `json:"item_id" validate:"gt=0"`
	Quantity int   `json:"quantity" validate:"gte=1"`
}

type CheckoutRequest struct {
	Cart          []CartLine      `json:"cart" validate:"required,min=1,dive"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card upi"`
	Discount      decimal.Decimal `json:"discount" validate:"gte=0,money"`
	SaleDate      string          `json:"sale_date" validate:"omitempty,datetime=2006-01-02"`
}

// SaleDraft is what the store needs to book a sale; prices are read inside the transaction.
type SaleDraft struct {
	Lines         []CartLine
	PaymentMethod string
	Discount      decimal.Decimal
	CreatedAt     time.Time
}

type CheckoutResponse struct {
	Sale     Sale            `json:"sale"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Partner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Contribution struct {
	ID               int64           `json:"id"`
	PartnerID        int64           `json:"partner_id"`
	PartnerName      string          `json:"partner_name,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	ContributionDate time.Time       `json:"contribution_date"`
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ContributionCreateRequest struct {
	PartnerID        int64           `json:"partner_id" validate:"gt=0"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0,money"`
	ContributionDate string          `json:"contribution_date" validate:"required,datetime=2006-01-02"`
	Notes            string          `json:"notes" validate:"max=500"`
}

type Expense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	Category    *string         `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0,money"`
	ExpenseDate string          `json:"expense_date" validate:"required,datetime=2006-01-02"`
	Category    string          `json:"category" validate:"max=64"`
}

type TrendingItem struct {
	Name              string          `json:"name"`
	Category          *string         `json:"category"`
	Source            *string         `json:"source"`
	TotalQuantitySold int             `json:"total_quantity_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

// DimensionTrend is one row of the material, category or source breakdown.
type DimensionTrend struct {
	Label   string          `json:"label"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type SlowMovingItem struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        *string `json:"category"`
	Stock           int     `json:"stock"`
	DaysOld         int     `json:"days_old"`
	LastSaleDaysAgo *int    `json:"last_sale_days_ago"`
}

type BalanceSheet struct {
	AsOf               string          `json:"as_of"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	InventoryValue     decimal.Decimal `json:"inventory_value"`
	CashBalance        decimal.Decimal `json:"cash_balance"`
	TotalAssets        decimal.Decimal `json:"total_assets"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	CostOfGoodsSold    decimal.Decimal `json:"cost_of_goods_sold"`
}

type ProfitLoss struct {
	Start           string          `json:"start"`
	End             string          `json:"end"`
	Revenue         decimal.Decimal `json:"revenue"`
	CostOfGoodsSold decimal.Decimal `json:"cost_of_goods_sold"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	Expenses        decimal.Decimal `json:"expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
}

type SalesSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	DailyRevenue      decimal.Decimal `json:"daily_revenue"`
	TotalTransactions int             `json:"total_transactions"`
	TotalItemsSold    int             `json:"total_items_sold"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Money columns are decimal(10,2).
const MoneyScale = 2

var MaxMoney = decimal.RequireFromString("99999999.99")

type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"                        json:"id"`
	Name             string          `gorm:"size:100;not null"                           json:"name"`
	Description      string          `gorm:"type:text"                                   json:"description"`
	Category         string          `gorm:"size:50;not null;index"                      json:"category"`
	ImageURL         string          `gorm:"size:500"                                    json:"image_url"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null"                 json:"price"`
	StockQuantity    int             `gorm:"not null;default:0;check:stock_quantity >= 0"       json:"stock_quantity"`
	ReservedQuantity int             `gorm:"not null;default:0;check:reserved_quantity >= 0"    json:"reserved_quantity"`
	CreatedAt        time.Time       `gorm:"index"                                       json:"created_at"`
	UpdatedAt        time.Time       `                                                   json:"updated_at"`
}

func (p *Product) InStock() bool { return p.StockQuantity > 0 }

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"            json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"    json:"user_id"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	ShippingAddress string          `gorm:"type:text;not null"          json:"shipping_address"`
	PaymentMethod   string          `gorm:"size:50;not null"            json:"payment_method"`
	Status          OrderStatus     `gorm:"size:20;not null;default:pending" json:"status"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"          json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"index"                       json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem freezes the unit price at checkout time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"    json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"  json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"size:20;not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"       json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"       json:"jti"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"   json:"user_id"`
	ExpiresAt int64     `gorm:"not null"                   json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"     json:"revoked"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error      { newID(&p.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error     { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error        { newID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error    { newID(&i.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error         { newID(&u.ID); return nil }
func (r *RefreshToken) BeforeCreate(*gorm.DB) error { newID(&r.ID); return nil }

// All lists every table for AutoMigrate.
func All() []any {
	return []any{&User{}, &RefreshToken{}, &Product{}, &CartItem{}, &Order{}, &OrderItem{}}
}

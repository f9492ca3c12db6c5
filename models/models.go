package models

import "time"

// User is the profile record returned by the shop backend. Field names match
// the backend's JSON serialization exactly.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AddressLine1 string    `json:"addressLine1,omitempty"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Country      string    `json:"country,omitempty"`
	ZipCode      string    `json:"zipCode,omitempty"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole reports whether the profile carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type RegisterRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	CategoryID    int64     `json:"categoryId"`
	CategoryName  string    `json:"categoryName"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ProductRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" validate:"gt=0"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	CategoryID    int64   `json:"categoryId" validate:"required"`
	Active        *bool   `json:"active,omitempty"`
}

type Category struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	ParentCategoryID *int64    `json:"parentCategoryId,omitempty"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type CategoryRequest struct {
	Name             string `json:"name" validate:"required"`
	ParentCategoryID *int64 `json:"parentCategoryId,omitempty"`
	Active           *bool  `json:"active,omitempty"`
}

// CartItem line totals are computed and owned by the backend; the mirror only
// displays them.
type CartItem struct {
	ID             int64   `json:"id"`
	ProductID      int64   `json:"productId"`
	ProductName    string  `json:"productName"`
	Quantity       int     `json:"quantity"`
	PriceAtAddTime float64 `json:"priceAtAddTime"`
	LineTotal      float64 `json:"lineTotal"`
}

type Cart struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"totalAmount"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// ItemCount is the sum of item quantities, derived on every call rather than
// stored.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

type AddCartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type OrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	PriceEach   float64 `json:"priceEach"`
	Subtotal    float64 `json:"subtotal"`
}

type Order struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"userId"`
	TotalAmount      float64       `json:"totalAmount"`
	Status           OrderStatus   `json:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	PaymentReference string        `json:"paymentReference"`
	CreatedAt        time.Time     `json:"createdAt"`
	Items            []OrderItem   `json:"items"`
}

type PlaceOrderRequest struct {
	PaymentReference string `json:"paymentReference,omitempty"`
}

type TopProduct struct {
	ProductID         int64   `json:"productId"`
	ProductName       string  `json:"productName"`
	TotalQuantitySold int64   `json:"totalQuantitySold"`
	TotalRevenue      float64 `json:"totalRevenue"`
}

type RevenueData struct {
	Date         string  `json:"date"`
	TotalRevenue float64 `json:"totalRevenue"`
	OrderCount   int64   `json:"orderCount"`
}

// Page is the backend's pagination envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

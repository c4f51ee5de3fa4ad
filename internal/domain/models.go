package domain

import "time"

// Product is a catalog entry, either from the content API or the admin list.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Colors        []string `json:"colors,omitempty"`
	Sizes         []string `json:"sizes,omitempty"`
	Customizable  bool     `json:"customizable"`
	InStock       bool     `json:"inStock"`
}

// OnSale reports whether the product carries an original (pre-discount) price.
func (p Product) OnSale() bool { return p.OriginalPrice != nil }

// Category groups products in the catalog.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// CartItem is a line in a user's cart. Price stays a formatted currency string.
type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
	Color    string `json:"color,omitempty"`
}

// SameLine reports whether two items share the (id, size) key.
func (c CartItem) SameLine(id, size string) bool {
	return c.ID == id && c.Size == size
}

// OrderStatus is the admin-managed lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod selected at checkout.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
	PaymentTest PaymentMethod = "test"
)

// ShippingMethod is a static shipping option.
type ShippingMethod struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	EstimatedDays   string  `json:"estimatedDays"`
	IsTest          bool    `json:"isTest"`
	RequiresAddress bool    `json:"requiresAddress"`
}

// DeliveryPoint is a pickup location.
type DeliveryPoint struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// PersonalInfo is the buyer's contact data.
type PersonalInfo struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=20,phone"`
}

// Address is a shipping address for courier methods.
type Address struct {
	Street     string `json:"street" validate:"required"`
	Apartment  string `json:"apartment,omitempty"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country,omitempty"`
}

// DeliveryKind discriminates DeliveryInfo.
type DeliveryKind string

const (
	DeliveryPickup  DeliveryKind = "pickup"
	DeliveryAddress DeliveryKind = "address"
	DeliveryTest    DeliveryKind = "test"
)

// DeliveryInfo holds exactly one of Address or Point depending on Kind.
type DeliveryInfo struct {
	Kind    DeliveryKind   `json:"kind"`
	Address *Address       `json:"address,omitempty"`
	Point   *DeliveryPoint `json:"point,omitempty"`
}

// OrderItem is a cart line frozen at checkout with a numeric price.
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
	Size     string  `json:"size"`
	Color    string  `json:"color,omitempty"`
}

// Order is the snapshot written at checkout.
type Order struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Items          []OrderItem    `json:"items"`
	PersonalInfo   PersonalInfo   `json:"personalInfo"`
	DeliveryInfo   DeliveryInfo   `json:"deliveryInfo"`
	DeliveryCode   string         `json:"deliveryCode"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	TotalAmount    float64        `json:"totalAmount"`
	Status         OrderStatus    `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
}

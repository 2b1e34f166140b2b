package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the coarse order state.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every recognised order status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a recognised order status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DeliveryStatus tracks courier handoff, separate from OrderStatus.
type DeliveryStatus string

const (
	DeliveryStatusPending        DeliveryStatus = "pending"
	DeliveryStatusConfirmed      DeliveryStatus = "confirmed"
	DeliveryStatusProcessing     DeliveryStatus = "processing"
	DeliveryStatusOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryStatusDelivered      DeliveryStatus = "delivered"
	DeliveryStatusCancelled      DeliveryStatus = "cancelled"
)

// DeliveryStatuses lists every recognised delivery status.
var DeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusConfirmed,
	DeliveryStatusProcessing,
	DeliveryStatusOutForDelivery,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
}

// Valid reports whether s is a recognised delivery status.
func (s DeliveryStatus) Valid() bool {
	for _, v := range DeliveryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ShippingInfo is the contact and address block captured at checkout.
type ShippingInfo struct {
	Email      string  `json:"email" validate:"required,email,max=254"`
	Name       string  `json:"name" validate:"required,max=200"`
	Address    string  `json:"address" validate:"required,max=500"`
	City       string  `json:"city" validate:"required,max=100"`
	PostalCode string  `json:"postalCode" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// Order is a placed order. Total is fixed at creation.
type Order struct {
	ID                    uuid.UUID      `json:"id"`
	UserID                *uuid.UUID     `json:"userId"`
	Email                 string         `json:"email"`
	Name                  string         `json:"name"`
	Address               string         `json:"address"`
	City                  string         `json:"city"`
	PostalCode            string         `json:"postalCode"`
	Country               string         `json:"country"`
	Phone                 *string        `json:"phone"`
	Total                 string         `json:"total"`
	Status                OrderStatus    `json:"status"`
	DeliveryStatus        DeliveryStatus `json:"deliveryStatus"`
	TrackingNumber        *string        `json:"trackingNumber"`
	EstimatedDeliveryDate *time.Time     `json:"estimatedDeliveryDate"`
	DeliveryNotes         *string        `json:"deliveryNotes"`
	StripePaymentID       *string        `json:"stripePaymentId"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// OrderItem is one purchased line. Price is the unit price at purchase time.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
}

// OrderItemDetail is an order item joined with current product info for display.
type OrderItemDetail struct {
	OrderItem
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage"`
}

// DeliveryUpdate is a partial update; nil fields are left unchanged.
type DeliveryUpdate struct {
	DeliveryStatus        *DeliveryStatus `json:"deliveryStatus"`
	TrackingNumber        *string         `json:"trackingNumber"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate"`
	DeliveryNotes         *string         `json:"deliveryNotes"`
}

// IsEmpty reports whether the update carries no fields.
func (u DeliveryUpdate) IsEmpty() bool {
	return u.DeliveryStatus == nil && u.TrackingNumber == nil &&
		u.EstimatedDeliveryDate == nil && u.DeliveryNotes == nil
}

// StatusCounts holds the number of orders per status.
type StatusCounts map[OrderStatus]int

// StatusTotal is one aggregate row: order count and summed totals for a status.
type StatusTotal struct {
	Status OrderStatus
	Count  int
	Total  string
}

// OrderStats is the back-office summary across all orders.
type OrderStats struct {
	TotalOrders    int          `json:"totalOrders"`
	TotalRevenue   string       `json:"totalRevenue"`
	OrdersByStatus StatusCounts `json:"ordersByStatus"`
}

// MonthlyReport is the per-month breakdown with the orders it covers.
type MonthlyReport struct {
	Year           int          `json:"year"`
	Month          int          `json:"month"`
	TotalOrders    int          `json:"totalOrders"`
	TotalRevenue   string       `json:"totalRevenue"`
	OrdersByStatus StatusCounts `json:"ordersByStatus"`
	Orders         []*Order     `json:"orders"`
}

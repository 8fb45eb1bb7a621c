package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusPaid       = "paid"
	PaymentStatusFailed     = "failed"
	PaymentStatusFraudCheck = "fraud_check"
)

const (
	PaymentMethodCash = "cash"
	PaymentMethodMoMo = "momo"
)

const DeliveryStatusPending = "pending"

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber string             `bson:"orderNumber" json:"orderNumber"`
	Customer    Customer           `bson:"customer" json:"customer"`
	Items       []OrderItem        `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	Delivery    Delivery           `bson:"delivery" json:"delivery"`
	Payment     OrderPayment       `bson:"payment" json:"payment"`
	Status      string             `bson:"status" json:"status"`
	Notes       *string            `bson:"notes" json:"notes"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Customer struct {
	Name     string   `bson:"name" json:"name"`
	Phone    string   `bson:"phone" json:"phone"`
	Email    *string  `bson:"email" json:"email"`
	Location Location `bson:"location" json:"location"`
}

type Location struct {
	Campus         string  `bson:"campus" json:"campus"`
	Hostel         string  `bson:"hostel" json:"hostel"`
	Room           string  `bson:"room" json:"room"`
	CustomLocation *string `bson:"customLocation" json:"customLocation"`
}

type OrderItem struct {
	ID           string  `bson:"id" json:"id"`
	Category     string  `bson:"category" json:"category"`
	CategoryName string  `bson:"categoryName" json:"categoryName"`
	Subtitle     string  `bson:"subtitle" json:"subtitle"`
	Preparation  string  `bson:"preparation" json:"preparation"`
	SpringRolls  int     `bson:"springRolls" json:"springRolls"`
	Samosas      int     `bson:"samosas" json:"samosas"`
	PieceCount   int     `bson:"pieceCount" json:"pieceCount"`
	Price        float64 `bson:"price" json:"price"`
}

type Delivery struct {
	Day           string `bson:"day" json:"day"`
	ScheduledDate string `bson:"scheduledDate" json:"scheduledDate"`
	Status        string `bson:"status" json:"status"`
}

type OrderPayment struct {
	Method       string     `bson:"method" json:"method"`
	Status       string     `bson:"status" json:"status"`
	Reference    *string    `bson:"reference" json:"reference"`
	PaidAt       *time.Time `bson:"paidAt" json:"paidAt"`
	Warning      string     `bson:"warning,omitempty" json:"warning,omitempty"`
	RawReference string     `bson:"rawReference,omitempty" json:"rawReference,omitempty"`
}

// PaymentConfirmation is the field set written onto an order once its payment
// has been reconciled.
type PaymentConfirmation struct {
	Reference string
	Channel   string
	PaidAt    time.Time
}

type OrderChange struct {
	Operation string `json:"operation"`
	Order     Order  `json:"order"`
}

// CanTransition reports whether an administrator may move an order from one
// status to another.
func CanTransition(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusConfirmed || to == OrderStatusCancelled
	case OrderStatusConfirmed:
		return to == OrderStatusDelivered || to == OrderStatusCancelled
	default:
		return false
	}
}

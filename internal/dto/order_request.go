package dto

type OrderItem struct {
	ID           string  `json:"id"`
	Category     string  `json:"category" validate:"required"`
	CategoryName string  `json:"categoryName"`
	Subtitle     string  `json:"subtitle"`
	Preparation  string  `json:"preparation" validate:"required"`
	SpringRolls  int     `json:"springRolls" validate:"gte=0"`
	Samosas      int     `json:"samosas" validate:"gte=0"`
	PieceCount   int     `json:"pieceCount" validate:"gte=0"`
	Price        float64 `json:"price" validate:"gt=0"`
}

type Location struct {
	Campus         string  `json:"campus"`
	Hostel         string  `json:"hostel"`
	Room           string  `json:"room"`
	CustomLocation *string `json:"customLocation"`
}

type CustomerRequest struct {
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone" validate:"required"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Location Location `json:"location"`
}

type OrderRequest struct {
	Customer      CustomerRequest `json:"customer"`
	Items         []OrderItem     `json:"items" validate:"required,min=1,dive"`
	TotalAmount   float64         `json:"totalAmount" validate:"gt=0"`
	DeliveryDay   string          `json:"deliveryDay" validate:"required,oneof=wednesday sunday"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=cash momo"`
	Notes         *string         `json:"notes"`
}

type OrderCreatedResponse struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"orderNumber"`
	TotalAmount float64 `json:"totalAmount"`
	Status      string  `json:"status"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed delivered cancelled"`
}

type DeliveryResponse struct {
	Day           string `json:"day"`
	ScheduledDate string `json:"scheduledDate"`
	Status        string `json:"status"`
}

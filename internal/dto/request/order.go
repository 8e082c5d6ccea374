package request

type AddMenuItemRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type OrderItemRequest struct {
	MenuID      string  `json:"menuId" validate:"required,uuid"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type PlaceOrderRequest struct {
	FranchiseID string             `json:"franchiseId" validate:"required,uuid"`
	StoreID     string             `json:"storeId" validate:"required,uuid"`
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

package utils

import (
	"testing"

	"pizza-service/internal/dto/request"
)

func TestValidateStruct_UsesJSONPaths(t *testing.T) {
	errs := ValidateStruct(&request.PlaceOrderRequest{
		FranchiseID: "not-a-uuid",
		Items: []request.OrderItemRequest{
			{MenuID: "6d0c3c8e-8a46-4a0e-9d0e-3f1f8a3b2c11", Price: -1},
		},
	})

	for _, key := range []string{"franchiseId", "storeId", "items[0].price"} {
		if _, ok := errs[key]; !ok {
			t.Fatalf("expected error for %s, got %v", key, errs)
		}
	}
	if _, ok := errs["items[0].menuId"]; ok {
		t.Fatalf("valid menu id reported: %v", errs)
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(&request.RegisterRequest{Name: "pizza diner", Email: "d@jwt.com", Password: "diner"})
	if errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateStruct_EmptyItems(t *testing.T) {
	errs := ValidateStruct(&request.PlaceOrderRequest{
		FranchiseID: "6d0c3c8e-8a46-4a0e-9d0e-3f1f8a3b2c11",
		StoreID:     "6d0c3c8e-8a46-4a0e-9d0e-3f1f8a3b2c12",
		Items:       []request.OrderItemRequest{},
	})
	if errs["items"] == "" {
		t.Fatalf("expected items error, got %v", errs)
	}
}

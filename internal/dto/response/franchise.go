package response

import (
	"pizza-service/internal/data/entity"
)

type FranchiseAdminResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type StoreResponse struct {
	ID          string `json:"id"`
	FranchiseID string `json:"franchiseId"`
	Name        string `json:"name"`
}

type FranchiseResponse struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	Admins []FranchiseAdminResponse `json:"admins"`
	Stores []StoreResponse          `json:"stores"`
}

func StoreToResponse(store *entity.Store) StoreResponse {
	return StoreResponse{
		ID:          store.ID.String(),
		FranchiseID: store.FranchiseID.String(),
		Name:        store.Name,
	}
}

func FranchiseToResponse(franchise *entity.Franchise) FranchiseResponse {
	resp := FranchiseResponse{
		ID:     franchise.ID.String(),
		Name:   franchise.Name,
		Admins: make([]FranchiseAdminResponse, 0, len(franchise.Admins)),
		Stores: make([]StoreResponse, 0, len(franchise.Stores)),
	}
	for _, admin := range franchise.Admins {
		resp.Admins = append(resp.Admins, FranchiseAdminResponse{
			ID:    admin.UserID.String(),
			Name:  admin.Name,
			Email: admin.Email,
		})
	}
	for i := range franchise.Stores {
		resp.Stores = append(resp.Stores, StoreToResponse(&franchise.Stores[i]))
	}
	return resp
}

func FranchisesToResponse(franchises []*entity.Franchise) []FranchiseResponse {
	resp := make([]FranchiseResponse, 0, len(franchises))
	for _, f := range franchises {
		resp = append(resp, FranchiseToResponse(f))
	}
	return resp
}

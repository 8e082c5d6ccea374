package request

type FranchiseAdminRef struct {
	Email string `json:"email" validate:"required,email"`
}

type CreateFranchiseRequest struct {
	Name   string              `json:"name" validate:"required,max=100"`
	Admins []FranchiseAdminRef `json:"admins" validate:"dive"`
}

type CreateStoreRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

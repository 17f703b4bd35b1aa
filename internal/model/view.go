package model

// ViewState is the pagination and ordering state of one list module
type ViewState struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Sort     string `json:"sort,omitempty"`
}

// BindingState is the lifecycle state of a form's submit binding
type BindingState string

const (
	BindingUnbound BindingState = "unbound"
	BindingBound   BindingState = "bound"
)

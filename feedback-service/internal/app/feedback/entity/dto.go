package entity

// ImportRequest - тело POST /imports/:source
type ImportRequest struct {
	Identifier string   `json:"identifier" validate:"required,max=2048"`
	SyncType   SyncType `json:"sync_type" validate:"omitempty,oneof=quick full"`
	MaxItems   int      `json:"max_items" validate:"omitempty,min=1,max=1000"`
}

// UpdateStatusRequest - смена статуса обработки отзыва
type UpdateStatusRequest struct {
	Status ReviewStatus `json:"status" validate:"required,oneof=open in_progress resolved"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type ProductHistoryResponse struct {
	History []ProductHistory `json:"history"`
	Total   int              `json:"total"`
}

type ThreadListResponse struct {
	Mailbox string   `json:"mailbox"`
	Threads []Thread `json:"threads"`
	Total   int      `json:"total"`
}

// AcceptedResponse - ответ на асинхронный запуск импорта
type AcceptedResponse struct {
	Message string        `json:"message"`
	Request IngestRequest `json:"request"`
}

package handler

type categoryRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	ParentID *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

type addBookRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Author       string `json:"author" validate:"required,max=255"`
	CategoryID   int64  `json:"categoryId" validate:"required,gt=0"`
	SerialNumber int64  `json:"serialNumber" validate:"required,gte=100000"`
}

type updateBookInfoRequest struct {
	BookInfoID int64  `json:"bookInfoId" validate:"required,gt=0"`
	Title      string `json:"title" validate:"required,max=255"`
	Author     string `json:"author" validate:"required,max=255"`
	CategoryID int64  `json:"categoryId" validate:"required,gt=0"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=6,max=64"`
	// bcrypt ignores input past 72 bytes
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=6,max=64"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role"`
}

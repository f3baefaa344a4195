package absence

type CreateAbsenceRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"required,min=3,max=500"`
}

type DecideAbsenceRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED REJECTED"`
}

type BulkApproveRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=100,dive,uuid"`
}

type ListAllQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

type AbsenceResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	OwnerID        string  `json:"owner_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalDays      int     `json:"total_days"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	DecidedBy      *string `json:"decided_by,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

type ListAllResponse struct {
	Items      []AbsenceResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type BulkApproveResponse struct {
	Count int `json:"count"`
}

type StatsResponse struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

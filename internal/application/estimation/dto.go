package estimation

// EstimateRequest is the body of an estimate call
type EstimateRequest struct {
	Accessories []string `json:"accessories" binding:"required,max=64,dive,max=200"`
}

// EstimateResponse carries the estimate in days
type EstimateResponse struct {
	Days int `json:"days"`
}

package model

// Viewer identity of the caller for one request
type Viewer struct {
	ID          string `json:"id"`
	Department  string `json:"department"`
	IsModerator bool   `json:"isModerator"`
}

package profile

// CreateProfileRequest represents the data needed to create a new profile.
type CreateProfileRequest struct {
	ProfileName string `json:"profileName"`
	Status      string `json:"status"`
	Country     string `json:"country"`
}

// UpdateProfileRequest represents the fields a player can edit.
type UpdateProfileRequest struct {
	ProfileName string `json:"profileName"`
	Status      string `json:"status"`
	Country     string `json:"country"`
}

// AvailabilityResponse is the check-profile reply. Message is either
// "taken" or "notTaken"; profile fields are filled when taken.
type AvailabilityResponse struct {
	Message       string `json:"message"`
	ProfileName   string `json:"profileName,omitempty"`
	TotalTrophies uint16 `json:"totalTrophies"`
	Status        string `json:"status"`
	Country       string `json:"country"`
}

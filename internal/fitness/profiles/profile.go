package profiles

import "time"

// Profile is created lazily on first access: every user gets a blank row
// the first time anything asks for their profile.
type Profile struct {
	ID          int       `json:"id"`
	UserID      string    `json:"userId"`
	DisplayName *string   `json:"displayName"`
	Bio         *string   `json:"bio"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type UpdateParams struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
}

package liblf

type (
	// A Profile is the backend user merged with the identity provider's identity.
	Profile struct {
		UID       string `json:"uid"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		PhotoURL  string `json:"photoURL,omitempty"`
		CreatedAt Date   `json:"createdAt"`
		LastLogin Date   `json:"lastLogin"`
	}

	// A Highlight is a promotional slide displayed on the home page.
	Highlight struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		BgImage     string `json:"bgImage"`
		ActionText  string `json:"actionText"`
		ActionLink  string `json:"actionLink"`
	}
)

// Recoverer returns the profile as the author of a recovery.
func (p Profile) Recoverer() Recoverer {
	return Recoverer{
		UserID:   p.UID,
		Name:     p.Name,
		Email:    p.Email,
		PhotoURL: p.PhotoURL,
	}
}

package liblf

const (
	// RecoveryPending is the status of a recovery waiting for the original owner's confirmation.
	RecoveryPending = "pending"
	// RecoveryFullyRecovered is the status of a recovery confirmed by the original owner.
	RecoveryFullyRecovered = "fully-recovered"
	// RecoveryCompleted is a legacy alias of RecoveryFullyRecovered still found in old records.
	RecoveryCompleted = "completed"
)

type (
	// A Recovery is a claim that an Item has been handed over.
	Recovery struct {
		ID                string       `json:"_id,omitempty"`
		ItemID            string       `json:"itemId"`
		RecoveredLocation string       `json:"recoveredLocation"`
		RecoveredDate     Date         `json:"recoveredDate"`
		Notes             string       `json:"notes,omitempty"`
		ItemDetails       ItemSnapshot `json:"itemDetails"`
		OriginalOwner     Contact      `json:"originalOwner"`
		RecoveredBy       Recoverer    `json:"recoveredBy"`
		SubmittedAt       Date         `json:"recoverySubmittedAt"`
		Status            string       `json:"recoveryStatus"`
	}

	// An ItemSnapshot is the denormalized copy of an item at the time of its recovery.
	ItemSnapshot struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Location    string `json:"location"`
		Date        Date   `json:"date"`
		Thumbnail   string `json:"thumbnail,omitempty"`
		Status      string `json:"status"`
	}

	// A Contact identifies the person who reported an item.
	Contact struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// A Recoverer identifies the signed in user who submitted a recovery.
	Recoverer struct {
		UserID   string `json:"userId"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		PhotoURL string `json:"photoURL,omitempty"`
	}
)

// Snapshot returns the denormalized copy of the given item.
func Snapshot(item Item) ItemSnapshot {
	return ItemSnapshot{
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		Date:        item.Date,
		Thumbnail:   item.Thumbnail,
		Status:      item.Status,
	}
}

// Pending returns true if the recovery waits for the original owner's confirmation.
func (r Recovery) Pending() bool {
	return r.Status == RecoveryPending
}

// FullyRecovered returns true if the original owner confirmed the recovery.
func (r Recovery) FullyRecovered() bool {
	return r.Status == RecoveryFullyRecovered || r.Status == RecoveryCompleted
}

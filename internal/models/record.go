package models

// Class tells which of the two persisted collections a record belongs to.
type Class int

const (
	ClassAccepted Class = iota
	ClassRejected
)

// String returns the collection name used in logs and artifact files.
func (c Class) String() string {
	if c == ClassAccepted {
		return "accepted"
	}
	return "rejected"
}

// Record is the persisted unit, one per distinct listing per collection.
// NormLink is unique within a collection and a given NormLink lives in at
// most one of the two collections at any time.
type Record struct {
	Title        string `json:"Title"`
	Price        string `json:"Price"`
	Negotiable   bool   `json:"Negotiable"`
	LocationDate string `json:"Location/Date"`
	Description  string `json:"Description"`
	Link         string `json:"Link"`
	NormLink     string `json:"NormLink"`
	Image        string `json:"Image,omitempty"`
	SearchName   string `json:"SearchName"`
	Notified     bool   `json:"Notified"`
	MissingCount int    `json:"MissingCount"`
	Timestamp    int64  `json:"Timestamp"`
}

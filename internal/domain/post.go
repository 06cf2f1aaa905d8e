package domain

import (
	"encoding/json"
	"time"
)

// PostType is the transaction kind of a listing.
type PostType string

const (
	PostTypeBuy  PostType = "buy"
	PostTypeRent PostType = "rent"
)

// PropertyKind is the property category of a listing.
type PropertyKind string

const (
	PropertyApartment PropertyKind = "apartment"
	PropertyHouse     PropertyKind = "house"
	PropertyCondo     PropertyKind = "condo"
	PropertyLand      PropertyKind = "land"
)

// Post is a real-estate listing.
type Post struct {
	PostID    string          `json:"post_id"`
	OwnerID   string          `json:"owner_id"`
	Title     string          `json:"title"`
	Price     int64           `json:"price"`
	City      string          `json:"city"`
	Address   string          `json:"address,omitempty"`
	Bedroom   int             `json:"bedroom"`
	Bathroom  int             `json:"bathroom"`
	Type      PostType        `json:"type"`
	Property  PropertyKind    `json:"property"`
	Images    []string        `json:"images,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`

	// IsSaved is computed per requester on point lookups.
	IsSaved bool `json:"is_saved"`
	// Owner is denormalized contact info for the listing page.
	Owner *User `json:"owner,omitempty"`
}

// PostFilter narrows a listing search. Zero values mean "any".
type PostFilter struct {
	City     string
	Type     PostType
	Property PropertyKind
	Bedroom  int
	MinPrice int64
	MaxPrice int64
}

package models

import "time"

// User is the locally stored record for a WorkOS-provisioned user.
// Keyed by the provider-assigned id; LinkedToKeywords flips to true once the
// user has been propagated to the KeywordsAI CRM and never reverts.
type User struct {
	ID               string    `bson:"_id" json:"id"`
	Email            string    `bson:"email" json:"email"`
	FullName         string    `bson:"fullName" json:"full_name"`
	LinkedToKeywords bool      `bson:"linkedToKeywords" json:"linked_to_keywords"`
	CreatedAt        time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updated_at"`
}

// internal/model/creator.go
package model

// Creator is a lead handed over by the lead source.
type Creator struct {
	CandidateID   string `db:"candidate_id" json:"candidate_id"`
	DisplayName   string `db:"display_name" json:"display_name"`
	FollowerCount int64  `db:"follower_count" json:"follower_count"`
	Description   string `db:"description" json:"description"`
	Email         string `db:"email" json:"email"`
}

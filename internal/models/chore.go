package models

import "time"

// Chore is stored at households/{householdId}/chores/{choreId}.
//
// AcceptorID is empty until someone takes the chore and transitions to
// non-empty at most once. FinishedDate is set only after IsReadyForReview has
// been true. The lifecycle derived from these fields lives in the core
// package; stored documents keep the raw fields.
type Chore struct {
	ID               string     `json:"id" firestore:"-"`
	Name             string     `json:"name" firestore:"name"`
	Description      string     `json:"description,omitempty" firestore:"description,omitempty"`
	RewardAmount     float64    `json:"rewardAmount" firestore:"rewardAmount"`
	ImageURLs        []string   `json:"imageUrls,omitempty" firestore:"imageUrls,omitempty"`
	RequestorID      string     `json:"requestorId" firestore:"requestorId"`
	AcceptorID       string     `json:"acceptorId,omitempty" firestore:"acceptorId,omitempty"`
	CreatedDate      time.Time  `json:"createdDate" firestore:"createdDate"`
	FinishedDate     *time.Time `json:"finishedDate,omitempty" firestore:"finishedDate,omitempty"`
	IsReadyForReview bool       `json:"isReadyForReview" firestore:"isReadyForReview"`
}

// DecodeChore builds a Chore from a raw document map. Name, requestorId and
// createdDate are required; a document missing them is malformed.
func DecodeChore(path, id string, data map[string]interface{}) (Chore, error) {
	name, err := reqString(data, "name")
	if err != nil {
		return Chore{}, decodeErr(path, id, "%v", err)
	}
	requestor, err := reqString(data, "requestorId")
	if err != nil {
		return Chore{}, decodeErr(path, id, "%v", err)
	}
	created, err := reqTime(data, "createdDate")
	if err != nil {
		return Chore{}, decodeErr(path, id, "%v", err)
	}
	return Chore{
		ID:               id,
		Name:             name,
		Description:      optString(data, "description"),
		RewardAmount:     optNumber(data, "rewardAmount"),
		ImageURLs:        optStringSlice(data, "imageUrls"),
		RequestorID:      requestor,
		AcceptorID:       optString(data, "acceptorId"),
		CreatedDate:      created,
		FinishedDate:     optTime(data, "finishedDate"),
		IsReadyForReview: optBool(data, "isReadyForReview"),
	}, nil
}

// Map returns the document representation written to the store.
func (c Chore) Map() map[string]interface{} {
	m := map[string]interface{}{
		"name":             c.Name,
		"rewardAmount":     c.RewardAmount,
		"requestorId":      c.RequestorID,
		"createdDate":      c.CreatedDate,
		"isReadyForReview": c.IsReadyForReview,
	}
	if c.Description != "" {
		m["description"] = c.Description
	}
	if len(c.ImageURLs) > 0 {
		m["imageUrls"] = c.ImageURLs
	}
	if c.AcceptorID != "" {
		m["acceptorId"] = c.AcceptorID
	}
	if c.FinishedDate != nil {
		m["finishedDate"] = *c.FinishedDate
	}
	return m
}

package share

import (
	"passvault/internal/domain/share"
)

type initiateInput struct {
	ItemID int `path:"id" example:"1" doc:"Item id to share"`
	Body   initiateRequest
}

type initiateRequest struct {
	ReceiverUsername string `json:"receiver_username" doc:"User to share the item with" minLength:"3"`
}

type shareIDInput struct {
	ID int `path:"id" example:"1" doc:"Share id"`
}

type shareOutput struct {
	Body shareResponse
}

type shareResponse struct {
	ShareID int    `json:"share_id"`
	Status  string `json:"status"`
}

type acceptOutput struct {
	Body acceptResponse
}

type acceptResponse struct {
	ShareID int    `json:"share_id"`
	ItemID  int    `json:"item_id" doc:"Id of the item imported into the receiver's vault"`
	Status  string `json:"status"`
}

type listReceivedInput struct {
	Status string `query:"status" enum:"pending,pending_sender_action,pending_receiver_acceptance,accepted,rejected,revoked,expired" doc:"Optional status filter; pending covers both pending sub-states" required:"false"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Shares []share.View `json:"shares"`
}

package dto

type CompleteStepRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

type ReopenStepRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

type HaltStepRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

type MoveBackwardRequest struct {
	TargetOrderIndex int    `json:"target_order_index"`
	Remarks          string `json:"remarks,omitempty"`
}

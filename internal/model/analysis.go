package model

// AnalysisResult is the canonical shape of a remote authentication reply.
// Narrative fields are always present, empty when the remote omitted them.
type AnalysisResult struct {
	Authentic          bool   `json:"authentic"`
	AuthenticityRating int    `json:"authenticityRating"`
	Analysis           string `json:"analysis"`
	Identification     string `json:"identification"`
	Pricing            string `json:"pricing"`
	Characters         string `json:"characters"`
	SessionID          string `json:"sessionId"`
	Timestamp          string `json:"timestamp"`
}

// UploadRequest is the body sent to the remote service. Back and angled
// images are omitted from the JSON when they were not captured.
type UploadRequest struct {
	SessionID       string  `json:"sessionId"`
	FrontImageData  string  `json:"frontImageData"`
	BackImageData   *string `json:"backImageData,omitempty"`
	AngledImageData *string `json:"angledImageData,omitempty"`
}

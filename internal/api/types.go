package api

// CreateAuditRequest is the payload for POST /api/audits.
type CreateAuditRequest struct {
	URL string `json:"url"`
}

package model

import "time"

// Prospect is a publication contact extracted heuristically from a
// journalist-request query. Extraction is best-effort pattern matching, not
// authoritative: any field other than SiteName may be absent.
type Prospect struct {
	SiteName       string  `json:"site_name"`
	HomepageURL    *string `json:"homepage_url"`
	ContactEmail   *string `json:"contact_email"`
	ContactFormURL *string `json:"contact_form_url"`

	// Relevance is a short free-text description of why the prospect was
	// extracted (query preview plus matched keywords).
	Relevance string    `json:"relevance"`
	FoundAt   time.Time `json:"found_date"`
}

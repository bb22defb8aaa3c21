package httpx

// HTTPXResponse is the subset of one httpx -json line that liveness
// decisions need. Unknown members are ignored.
type HTTPXResponse struct {
	Timestamp     string         `json:"timestamp"`
	URL           string         `json:"url"`
	Input         string         `json:"input"`
	Host          string         `json:"host"`
	Scheme        string         `json:"scheme"`
	Port          string         `json:"port"`
	StatusCode    int            `json:"status_code"`
	ContentLength int            `json:"content_length,omitempty"`
	Title         FlexibleString `json:"title"`
	Webserver     FlexibleString `json:"webserver"`
	CNAME         FlexibleString `json:"cname"`
	CDN           FlexibleBool   `json:"cdn"`
	Failed        FlexibleBool   `json:"failed"`

	// Redirect chain
	ChainStatusCodes []int `json:"chain_status_codes,omitempty"`
}

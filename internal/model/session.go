package model

// SessionResponse represents response for GET /session and all session intents
type SessionResponse struct {
	Phase       string   `json:"phase"`
	Presence    bool     `json:"presence"`
	Trusted     bool     `json:"trusted"`
	PublicKey   string   `json:"publicKey,omitempty"`
	ListStatus  string   `json:"listStatus"`
	ListSource  string   `json:"listSource"`
	Gifs        []string `json:"gifs"`
	Input       string   `json:"input"`
	BaseAccount string   `json:"baseAccount"`
	Failure     *Failure `json:"failure,omitempty"`
}

// Failure is the last failure recorded by the session controller
type Failure struct {
	Op      string `json:"op"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// InputRequest represents request for PUT /session/input
type InputRequest struct {
	Value string `json:"value"`
}

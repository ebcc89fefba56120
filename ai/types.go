package ai

// ChatMessage is a single message in a chat completion conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the provider to constrain the completion output
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the request body for the chat completions endpoint
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatChoice is one completion candidate
type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatError carries provider error details
type ChatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// ChatResponse is the response body from the chat completions endpoint
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Error   *ChatError   `json:"error,omitempty"`
}

// contract is the strict JSON object the analyst prompt demands from the model
type contract struct {
	Summary         string   `json:"summary"`
	Details         string   `json:"details"`
	Recommendations []string `json:"recommendations"`
	Severity        string   `json:"severity"`
	Confidence      int      `json:"confidence"`
}

// Result is a completed analysis ready for persistence
type Result struct {
	TargetType      string   `json:"target_type"`
	AnalysisType    string   `json:"analysis_type"`
	Summary         string   `json:"summary"`
	Details         string   `json:"details"`
	Recommendations []string `json:"recommendations"`
	Severity        string   `json:"severity"`
	Confidence      int      `json:"confidence"`
	Model           string   `json:"model"`
	Degraded        bool     `json:"degraded"`
}

package whatsapp

type SendMessageInput struct {
	PhoneNumber  string   // E.164 without '+', e.g. "821012345678"
	TemplateName string   // e.g. "counselor_action"
	Parameters   []string // body placeholders in template order
}

type SendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Error *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

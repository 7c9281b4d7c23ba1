package models

// Domain response codes surfaced to clients alongside the HTTP status.
const (
	CodeOK                  = 1000
	CodeParamsValueInvalid  = 1004
	CodeFileTooBig          = 1006
	CodeUploadFileFailed    = 1007
	CodeMaxNumberImages     = 1008
	CodeOnlyImagesOrVideos  = 1008
	CodeNotAccess           = 1009
	CodeActionHasDone       = 1010
	CodePostNotExist        = 9992
	CodeVerifyCodeIncorrect = 9993
	CodeNoData              = 9994
	CodeUserNotValidated    = 9995
	CodeTokenInvalid        = 9998
	CodeExceptionError      = 9999
)

// Envelope is the tagged result returned by every core operation.
type Envelope struct {
	Data    any    `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Data: data, Success: true, Message: "OK", Code: CodeOK}
}

// Succeeded is a successful envelope with a custom message.
func Succeeded(message string, data any) Envelope {
	return Envelope{Data: data, Success: true, Message: message, Code: CodeOK}
}

// Fail is an expected negative outcome. It is not an error.
func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message, Code: CodeActionHasDone}
}

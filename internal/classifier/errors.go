package classifier

import "fmt"

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

type apiError struct {
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("llm request: api error: %s", e.Message)
}

type decodeError struct {
	Body string
	Err  error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("llm request: decode response: %v (body: %s)", e.Err, e.Body)
}

func (e *decodeError) Unwrap() error {
	return e.Err
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("llm request: empty content (finish_reason=%q, refusal=%q)", e.FinishReason, e.Refusal)
}

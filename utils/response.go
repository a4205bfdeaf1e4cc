package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// APIError is a non-zero envelope code decoded from a response body.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// ErrEmptyEnvelope is returned when a success envelope carries no data.
var ErrEmptyEnvelope = errors.New("response envelope has no data")

// DecodeEnvelope reads one {code,message,data} envelope from r and decodes its
// data into T. A non-zero code is returned as *APIError.
func DecodeEnvelope[T any](r io.Reader) (T, error) {
	var zero T
	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return zero, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != 0 {
		return zero, &APIError{Code: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return zero, ErrEmptyEnvelope
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, fmt.Errorf("decode envelope data: %w", err)
	}
	return out, nil
}

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/pkg"
)

// ErrorResponse is the JSON error envelope shared by the CLI and the HTTP API.
type ErrorResponse struct {
	SchemaVersion string `json:"schema_version"`
	Error         string `json:"error"`
	Code          int    `json:"code"`
	Kind          string `json:"kind"`
}

func NewErrorResponse(err error) ErrorResponse {
	code := gserrors.GetCode(err)
	return ErrorResponse{
		SchemaVersion: pkg.JSONSchemaVersion,
		Error:         err.Error(),
		Code:          code,
		Kind:          gserrors.CodeName(code),
	}
}

// WriteError renders err as plain text or as a JSON ErrorResponse.
func WriteError(w io.Writer, err error, asJSON bool) {
	if asJSON {
		if encodeErr := json.NewEncoder(w).Encode(NewErrorResponse(err)); encodeErr == nil {
			return
		}
	}
	fmt.Fprintln(w, err.Error())
}

func HandleExit(err error, asJSON bool) {
	if err == nil {
		os.Exit(gserrors.Success)
	}

	WriteError(os.Stderr, err, asJSON)
	os.Exit(gserrors.GetCode(err))
}

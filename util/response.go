package util

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"github.com/frain-dev/pgtime/pkg/log"
)

type Response struct {
	StatusCode int `json:"-"`
}

func (res Response) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, res.StatusCode)
	return nil
}

func NewErrorResponse(msg string, statusCode int) ServerResponse {
	return ServerResponse{
		Status:  false,
		Message: msg,
		Response: Response{
			StatusCode: statusCode,
		},
	}
}

type ServerResponse struct {
	Response
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func NewServerResponse(msg string, object interface{}, statusCode int) ServerResponse {
	var data json.RawMessage
	if object != nil {
		b, err := json.Marshal(object)
		if err != nil {
			log.Error("Unable to marshal response data - ", err)
		}
		data = b
	}

	return ServerResponse{
		Status:  true,
		Message: msg,
		Data:    data,
		Response: Response{
			StatusCode: statusCode,
		},
	}
}

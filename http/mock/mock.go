// Package mock provides helpers for testing the HTTP handlers.
package mock

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/http/errorhandler"
	"github.com/ezshield/logrelay/http/validator"

	"github.com/invopop/jsonschema"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func DummyEcho() *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	router.Logger.SetOutput(io.Discard)
	router.Validator = validator.New()

	return router
}

type Response struct {
	Code    int
	Header  http.Header
	Raw     []byte
	Data    interface{}
	Details []string
}

// Request sends a request to the router and requires the given status. A non-nil
// body is sent as JSON.
func Request(t require.TestingT, httpstatus int, router *echo.Echo, method, path string, data io.Reader) *Response {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, data)
	if data != nil {
		req.Header.Add(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	router.ServeHTTP(w, req)

	response := CheckResponse(t, w.Result())

	require.Equal(t, httpstatus, w.Code, string(response.Raw))

	return response
}

func CheckResponse(t require.TestingT, res *http.Response) *Response {
	response := &Response{
		Code:   res.StatusCode,
		Header: res.Header,
	}

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	res.Body.Close()

	response.Raw = body

	if strings.Contains(res.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		err := json.Unmarshal(body, &response.Data)
		require.NoError(t, err)
	} else {
		response.Data = body
	}

	if response.Code >= http.StatusBadRequest {
		if m, ok := response.Data.(map[string]interface{}); ok {
			if details, ok := m["details"].([]interface{}); ok {
				for _, d := range details {
					response.Details = append(response.Details, d.(string))
				}
			}
		}
	}

	return response
}

// Validate requires that data is valid against the JSON schema of datatype.
func Validate(t require.TestingT, datatype, data interface{}) bool {
	schema, err := jsonschema.Reflect(datatype).MarshalJSON()
	require.NoError(t, err)

	schemaLoader := gojsonschema.NewStringLoader(string(schema))
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	require.NoError(t, err)
	require.True(t, result.Valid(), result.Errors())

	return true
}
